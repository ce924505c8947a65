package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github/itish2003/pdfqa/logger"
	"github/itish2003/pdfqa/middleware"
	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/services"
)

// RAGController handles the HTTP requests of the form and the JSON API. It
// stages uploads on disk and delegates everything else to the RAGService.
type RAGController struct {
	ragService services.RAGService
	uploads    *services.UploadStore
	title      string
}

// NewRAGController creates a controller. title is shown on the form page.
func NewRAGController(service services.RAGService, uploads *services.UploadStore, title string) *RAGController {
	return &RAGController{
		ragService: service,
		uploads:    uploads,
		title:      title,
	}
}

// Index renders the upload/ask form.
func (c *RAGController) Index(ctx *gin.Context) {
	status, err := c.ragService.Status(ctx.Request.Context())
	message := ""
	if err == nil && status.Ready {
		message = "Loaded: " + status.Document
	}
	ctx.HTML(http.StatusOK, "index.html", gin.H{
		"Title":  c.title,
		"Status": message,
	})
}

// UploadDocument is the handler for POST /api/v1/upload. It expects a
// multipart form with the PDF in the "file" field.
func (c *RAGController) UploadDocument(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(ctx, http.StatusRequestEntityTooLarge, "request_too_large", "Request body exceeds maximum size")
			return
		}
		respondWithError(ctx, http.StatusBadRequest, "bad_request", "A PDF file is required in the 'file' field.")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "bad_request", "Could not read the uploaded file.")
		return
	}
	defer src.Close()

	path, err := c.uploads.Save(fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, services.ErrExtraction) {
			respondWithError(ctx, http.StatusUnprocessableEntity, "extraction_failed", "Only PDF documents are supported.")
			return
		}
		logger.Error("could not stage upload", "request_id", middleware.GetRequestID(ctx), "error", err)
		respondWithError(ctx, http.StatusInternalServerError, "internal_error", "Could not store the uploaded file.")
		return
	}
	defer func() {
		if err := c.uploads.Remove(path); err != nil {
			logger.Warn("could not remove staged upload", "path", path, "error", err)
		}
	}()

	status, err := c.ragService.UploadDocument(ctx.Request.Context(), path)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, models.UploadResponse{Status: status})
}

// AskQuestion is the handler for POST /api/v1/query. A blank query is passed
// through; the service decides how to answer it.
func (c *RAGController) AskQuestion(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBind(&req); err != nil {
		logger.Warn("could not bind query request", "request_id", middleware.GetRequestID(ctx), "error", err)
		respondWithError(ctx, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	answer, err := c.ragService.Ask(ctx.Request.Context(), req.Query)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, models.QueryResponse{Answer: answer})
}

// GetStatus is the handler for GET /api/v1/status.
func (c *RAGController) GetStatus(ctx *gin.Context) {
	status, err := c.ragService.Status(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func respondWithError(ctx *gin.Context, statusCode int, errorCode, message string) {
	ctx.JSON(statusCode, models.ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
	})
}

// respondWithServiceError maps pipeline error kinds to a status code and a
// short message. The full error is logged, not returned.
func respondWithServiceError(ctx *gin.Context, err error) {
	logger.Error("request failed", "request_id", middleware.GetRequestID(ctx), "path", ctx.FullPath(), "error", err)

	switch {
	case errors.Is(err, services.ErrExtraction):
		respondWithError(ctx, http.StatusUnprocessableEntity, "extraction_failed", "The document could not be read as a PDF.")
	case errors.Is(err, services.ErrSplitConfig):
		respondWithError(ctx, http.StatusInternalServerError, "split_config", "The document splitter is misconfigured.")
	case errors.Is(err, services.ErrStorage):
		respondWithError(ctx, http.StatusBadGateway, "storage_failed", "The document could not be stored in the vector database.")
	case errors.Is(err, services.ErrRetrieval):
		respondWithError(ctx, http.StatusBadGateway, "retrieval_failed", "Relevant passages could not be retrieved.")
	case errors.Is(err, services.ErrGeneration):
		respondWithError(ctx, http.StatusBadGateway, "generation_failed", "The language model did not return an answer.")
	default:
		respondWithError(ctx, http.StatusInternalServerError, "internal_error", "Unexpected error.")
	}
}
