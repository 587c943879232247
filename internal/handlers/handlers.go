package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"idverify/internal/logger"
	"idverify/internal/models"
	"idverify/internal/pipeline"
)

// RecordStore persists verification summaries. A nil store disables share
// links and lookups.
type RecordStore interface {
	Save(ctx context.Context, rec models.VerificationRecord) error
	Get(ctx context.Context, id string) (models.VerificationRecord, error)
	Recent(ctx context.Context, limit int, rec models.Recommendation) ([]models.VerificationRecord, error)
}

type Options struct {
	Store           RecordStore
	ShareSecret     []byte
	ShareMaxHours   int
	FrontendBaseURL string
	// BodyLimit caps uploads in bytes.
	BodyLimit int64
	// Checks are probed by the health endpoint.
	Checks map[string]func(ctx context.Context) error
	Log    *zap.Logger
}

// API serves the verification endpoints.
type API struct {
	verifier *pipeline.Verifier
	store    RecordStore
	secret   []byte
	maxHours int
	baseURL  string
	limit    int64
	checks   map[string]func(ctx context.Context) error
	log      *zap.Logger
}

func New(v *pipeline.Verifier, opts Options) *API {
	a := &API{
		verifier: v,
		store:    opts.Store,
		secret:   opts.ShareSecret,
		maxHours: opts.ShareMaxHours,
		baseURL:  trimRightSlash(opts.FrontendBaseURL),
		limit:    opts.BodyLimit,
		checks:   opts.Checks,
		log:      opts.Log,
	}
	if a.maxHours < 1 || a.maxHours > 168 {
		a.maxHours = 168
	}
	if a.baseURL == "" {
		a.baseURL = "http://localhost:3000"
	}
	if a.limit <= 0 {
		a.limit = 10 << 20
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// logFor prefers the request logger set by the logging middleware.
func (a *API) logFor(ctx context.Context) *zap.Logger {
	if l, ok := logger.FromContext(ctx); ok {
		return l
	}
	return a.log
}

func writeJSONResp(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": msg})
}

func serverError(w http.ResponseWriter, msg string) {
	writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": msg})
}

var (
	errNoFile          = errors.New("missing file field 'file' (send multipart/form-data with field name 'file')")
	errEmptyUpload     = errors.New("uploaded file is empty")
	errUnsupportedType = errors.New("unsupported file type; upload a PNG, JPEG, GIF, WEBP or BMP image")
)

// formFile returns the preferred file field, else one of alts, else the
// first file in the form.
func formFile(r *http.Request, preferred string, alts ...string) (multipart.File, *multipart.FileHeader, error) {
	if f, h, err := r.FormFile(preferred); err == nil {
		return f, h, nil
	}
	available := []string{}
	if r.MultipartForm != nil {
		for k := range r.MultipartForm.File {
			available = append(available, k)
		}
	}
	for _, a := range alts {
		for _, k := range available {
			if strings.EqualFold(k, a) {
				return r.FormFile(k)
			}
		}
	}
	if len(available) > 0 {
		return r.FormFile(available[0])
	}
	return nil, nil, errNoFile
}

var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// saveUpload copies an uploaded image to a per-request temp file. The
// caller must run cleanup on every path.
func saveUpload(file io.Reader) (path string, cleanup func(), err error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	if n == 0 {
		return "", nil, errEmptyUpload
	}
	head = head[:n]
	ext, ok := imageExts[http.DetectContentType(head)]
	if !ok {
		return "", nil, errUnsupportedType
	}

	f, err := os.CreateTemp("", "idverify-upload-*"+ext)
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = os.Remove(f.Name()) }
	if _, err = f.Write(head); err == nil {
		_, err = io.Copy(f, file)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

// receiveImage parses a multipart upload and stores its image. On failure
// it has already written the response.
func (a *API) receiveImage(w http.ResponseWriter, r *http.Request) (string, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, a.limit)
	if err := r.ParseMultipartForm(a.limit); err != nil {
		badRequest(w, "failed to parse form or file too large")
		return "", nil, false
	}
	file, _, err := formFile(r, "file", "image", "document", "idImage", "id_image", "upload")
	if err != nil {
		badRequest(w, err.Error())
		return "", nil, false
	}
	defer file.Close()

	path, cleanup, err := saveUpload(file)
	if err != nil {
		if errors.Is(err, errEmptyUpload) || errors.Is(err, errUnsupportedType) {
			badRequest(w, err.Error())
		} else {
			a.logFor(r.Context()).Error("failed to store upload", zap.Error(err))
			serverError(w, "failed to read uploaded file")
		}
		return "", nil, false
	}
	return path, cleanup, true
}

func trimRightSlash(s string) string {
	return strings.TrimRight(s, "/")
}
