package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github/itish2003/pdfqa/logger"
)

// InboxWatcher ingests PDFs dropped into a directory, as if they had been
// uploaded through the form.
type InboxWatcher struct {
	ragService RAGService
	dir        string

	mu       sync.Mutex
	lastHash string
}

// NewInboxWatcher creates a watcher for dir.
func NewInboxWatcher(ragService RAGService, dir string) *InboxWatcher {
	return &InboxWatcher{ragService: ragService, dir: dir}
}

// ScanDirectory ingests the most recently modified PDF already in the inbox.
func (w *InboxWatcher) ScanDirectory(ctx context.Context) {
	logger.Info("scanning inbox", "dir", w.dir)

	var newest string
	var newestMod int64
	err := filepath.Walk(w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest, newestMod = path, mod
		}
		return nil
	})
	if err != nil {
		logger.Error("could not walk inbox", "dir", w.dir, "error", err)
		return
	}
	if newest == "" {
		logger.Info("inbox is empty", "dir", w.dir)
		return
	}
	w.ingest(ctx, newest)
}

// WatchDirectory blocks until ctx is cancelled, ingesting every PDF that is
// created or rewritten in the inbox.
func (w *InboxWatcher) WatchDirectory(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create file watcher", "error", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}
				// Editors often save via create+rename, so Create and Write are treated alike.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					logger.Debug("inbox event", "event", event.String())
					w.ingest(ctx, event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("file watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		logger.Error("failed to add path to watcher", "dir", w.dir, "error", err)
		return
	}
	logger.Info("watching inbox", "dir", w.dir)

	<-ctx.Done()
	logger.Info("inbox watcher stopped", "dir", w.dir)
}

// ingest skips files whose content matches the last ingested file, which
// absorbs the burst of Write events a single save produces.
func (w *InboxWatcher) ingest(ctx context.Context, path string) {
	hash, err := calculateFileHash(path)
	if err != nil {
		logger.Warn("could not hash file", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if hash == w.lastHash {
		return
	}

	if _, err := w.ragService.UploadDocument(ctx, path); err != nil {
		logger.Error("failed to ingest inbox file", "path", path, "error", err)
		return
	}
	w.lastHash = hash
}

func isSupportedFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
