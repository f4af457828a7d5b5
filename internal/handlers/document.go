package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"vectortutor-backend/internal/agents"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

type DocumentHandler struct {
	reader         *agents.Reader
	extractor      *services.FileExtractService
	store          *repository.Store
	storagePath    string
	maxUploadBytes int64
	log            *logger.Logger
}

func NewDocumentHandler(reader *agents.Reader, extractor *services.FileExtractService, store *repository.Store, storagePath string, maxUploadMB int, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		reader:         reader,
		extractor:      extractor,
		store:          store,
		storagePath:    storagePath,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		log:            log,
	}
}

// Upload stores a PDF under the storage path and runs it through the reader.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := h.receivePDF(w, r)
	if !ok {
		return
	}

	result, err := h.reader.Process(r.Context(), path, filename)
	if err != nil {
		os.Remove(path)
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Pages splits an uploaded PDF into page chunks without storing anything.
func (h *DocumentHandler) Pages(w http.ResponseWriter, r *http.Request) {
	path, _, ok := h.receivePDF(w, r)
	if !ok {
		return
	}
	defer os.Remove(path)

	maxChars := services.DefaultPageChunkChars
	if raw := r.FormValue("max_chars"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"max_chars": "must be a positive integer"}, r))
			return
		}
		maxChars = n
	}

	chunks, err := h.extractor.ExtractByPages(path, maxChars)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EXTRACTION_FAILED", "Could not read the PDF", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Documents.List(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.store.Documents.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Progress reports artifact counts and quiz performance for one document.
func (h *DocumentHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := h.store.Documents.GetByID(ctx, id); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	counts, err := h.store.Counts(ctx, &id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	stats, err := h.store.Quizzes.Stats(ctx, &id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewProgress(*counts, *stats))
}

// receivePDF copies the multipart "file" field into the storage directory
// under a fresh name. On failure it has already written the response.
func (h *DocumentHandler) receivePDF(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if r.ContentLength > h.maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", h.tooLargeMessage(), r))
		return "", "", false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", h.tooLargeMessage(), r))
			return "", "", false
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return "", "", false
	}
	defer file.Close()

	// Read first 512 bytes for magic byte check
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") || http.DetectContentType(buf[:n]) != "application/pdf" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "Only PDF files are supported", r))
		return "", "", false
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		handleError(w, r, h.log, err)
		return "", "", false
	}

	if err := os.MkdirAll(h.storagePath, 0o755); err != nil {
		handleError(w, r, h.log, fmt.Errorf("failed to create storage directory: %w", err))
		return "", "", false
	}
	path := filepath.Join(h.storagePath, uuid.New().String()+".pdf")

	dst, err := os.Create(path)
	if err != nil {
		handleError(w, r, h.log, fmt.Errorf("failed to create upload file: %w", err))
		return "", "", false
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		handleError(w, r, h.log, fmt.Errorf("failed to save upload: %w", err))
		return "", "", false
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		handleError(w, r, h.log, fmt.Errorf("failed to save upload: %w", err))
		return "", "", false
	}

	return path, filepath.Base(header.Filename), true
}

func (h *DocumentHandler) tooLargeMessage() string {
	return fmt.Sprintf("File size exceeds %dMB limit", h.maxUploadBytes/(1024*1024))
}
