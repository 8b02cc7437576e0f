package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/maauso/storage-providers/internal/keygen"
	"github.com/maauso/storage-providers/internal/storage"
)

const (
	formFileField     = "file"
	formDataRequired  = "File upload must be form-data"
	filenameRequired  = "Query parameter filename is required"
	uploadTooLarge    = "File upload exceeds the size limit"
	downloadTooLarge  = "File exceeds the download size limit"
	codeStorageError  = "STORAGE_ERROR"
	codeProviderError = "PROVIDER_UNAVAILABLE"
)

// Handlers contains the HTTP handlers for the API.
// The file handlers take their provider as an argument so the same handler
// serves both the middleware and the hook routes.
type Handlers struct {
	validator        *validator.Validate
	logger           *slog.Logger
	maxUploadBytes   int64
	maxDownloadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes caps the size of upload request bodies.
// Zero or a negative value disables the cap.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		h.maxUploadBytes = n
	}
}

// WithMaxDownloadBytes caps how much of a stored file GetFile reads into
// memory. Zero or a negative value disables the cap.
func WithMaxDownloadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		h.maxDownloadBytes = n
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetFile handles GET ?filename= requests.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request, p storage.Provider) {
	q, ok := h.fileQuery(w, r)
	if !ok {
		return
	}

	exists, err := p.IsFile(r.Context(), q.Filename)
	if err != nil {
		h.storageError(w, r, "get file", q.Filename, err)
		return
	}
	h.logger.Debug("file lookup",
		slog.String("filename", q.Filename),
		slog.Bool("exists", exists),
	)

	var opts []storage.Option
	if h.maxDownloadBytes > 0 {
		opts = append(opts, storage.WithMaxBytes(h.maxDownloadBytes))
	}
	data, err := p.GetFile(r.Context(), q.Filename, opts...)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			h.logger.Warn("file exceeds download limit",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("filename", q.Filename),
				slog.Int64("limit", h.maxDownloadBytes),
			)
			writeError(w, http.StatusInternalServerError, downloadTooLarge, "DOWNLOAD_TOO_LARGE")
			return
		}
		h.storageError(w, r, "get file", q.Filename, err)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write file response",
			slog.String("filename", q.Filename),
			slog.String("error", err.Error()),
		)
	}
}

// SaveFile handles multipart POST requests. The part named "file" is stored
// under the filename query parameter when given, else under the part's own
// filename, else under a generated key. The body is the stored path.
func (h *Handlers) SaveFile(w http.ResponseWriter, r *http.Request, p storage.Provider) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, formDataRequired, "INVALID_FORM")
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rejectTooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, formDataRequired, "INVALID_FORM")
		return
	}
	defer part.Close()

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = part.FileName()
	}
	if filename == "" {
		filename = keygen.Generate(extensionFor(part.Header.Get("Content-Type")))
	}

	var opts []storage.Option
	if ct := part.Header.Get("Content-Type"); ct != "" {
		opts = append(opts, storage.WithContentType(ct))
	} else if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		opts = append(opts, storage.WithContentType(ct))
	}

	written, err := p.SaveFile(r.Context(), part, filename, opts...)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rejectTooLarge(w)
			return
		}
		h.storageError(w, r, "save file", filename, err)
		return
	}

	h.logger.Info("file saved",
		slog.String("filename", filename),
		slog.String("path", written),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, written)
}

// rejectTooLarge answers an upload that hit the body cap. The rest of the
// body is never read, so the connection cannot be reused.
func rejectTooLarge(w http.ResponseWriter) {
	w.Header().Set("Connection", "close")
	writeError(w, http.StatusRequestEntityTooLarge, uploadTooLarge, "UPLOAD_TOO_LARGE")
}

// DeleteFile handles DELETE ?filename= requests.
// It answers 204 when the file was removed and 404 otherwise.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request, p storage.Provider) {
	q, ok := h.fileQuery(w, r)
	if !ok {
		return
	}

	deleted, err := p.DeleteFile(r.Context(), q.Filename)
	if err != nil {
		h.storageError(w, r, "delete file", q.Filename, err)
		return
	}
	if !deleted {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h.logger.Info("file deleted", slog.String("filename", q.Filename))
	w.WriteHeader(http.StatusNoContent)
}

// ProviderError renders a provider that could not be obtained for a request.
// It satisfies inject.ErrorWriter.
func (h *Handlers) ProviderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("storage provider unavailable",
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	code := codeProviderError
	if errors.Is(err, storage.ErrStorage) {
		code = codeStorageError
	}
	writeError(w, http.StatusInternalServerError, storage.Description(err), code)
}

func (h *Handlers) fileQuery(w http.ResponseWriter, r *http.Request) (FileQuery, bool) {
	q := FileQuery{Filename: r.URL.Query().Get("filename")}
	if err := h.validator.Struct(q); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, filenameRequired, "VALIDATION_ERROR")
		return q, false
	}
	return q, true
}

func (h *Handlers) storageError(w http.ResponseWriter, r *http.Request, op, filename string, err error) {
	h.logger.Error("storage operation failed",
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("operation", op),
		slog.String("filename", filename),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, storage.Description(err), codeStorageError)
}

// nextFilePart advances mr to the upload part, skipping other form fields.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == formFileField {
			return part, nil
		}
		_ = part.Close()
	}
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if mt := mimetype.Lookup(mediaType); mt != nil {
		return mt.Extension()
	}
	return ""
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, description, code string) {
	writeJSON(w, status, ErrorResponse{
		Title:       http.StatusText(status),
		Description: description,
		Code:        code,
	})
}
