package models

// UploadResponse reports the outcome of an upload.
type UploadResponse struct {
	Status string `json:"status"`
}

// QueryResponse carries the model's answer verbatim.
type QueryResponse struct {
	Answer string `json:"answer"`
}

// StatusResponse describes the document currently loaded in the session.
type StatusResponse struct {
	Document string `json:"document,omitempty"`
	Ready    bool   `json:"ready"`
	Chunks   int    `json:"chunks,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}
