package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/logging"
)

const (
	maxJSONBytes     = 1 << 20
	multipartMemory  = 8 << 20
	defaultMaxUpload = 512 << 20
)

// Uploads controls where multipart files are spooled before they are handed to storage.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// received maps multipart field names onto the local paths of the saved files.
type received map[string][]string

func (f received) first(field string) string {
	if paths := f[field]; len(paths) > 0 {
		return paths[0]
	}
	return ""
}

// cleanup removes every spooled file.
func (f received) cleanup(r *http.Request) {
	for _, paths := range f {
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.FromContext(r.Context()).Warn("failed to remove upload", zap.String("path", p), zap.Error(err))
			}
		}
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Invalid("request body is too large")
		}
		return apperr.Invalid("invalid request body")
	}
	return nil
}

// decodeForm reads a JSON or multipart body into dst. For multipart bodies the text
// fields are mapped through dst's json tags (values that parse as JSON objects or
// arrays are passed through) and the named file fields are spooled to disk.
// The caller must cleanup the returned files.
func (u Uploads) decodeForm(w http.ResponseWriter, r *http.Request, dst any, fileFields ...string) (received, error) {
	files := received{}
	if !isMultipart(r) {
		return files, decodeJSON(w, r, dst)
	}

	limit := u.MaxBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return files, apperr.Invalid("upload exceeds %d bytes", limit)
		}
		return files, apperr.Invalid("invalid multipart body")
	}

	fields := make(map[string]json.RawMessage, len(r.MultipartForm.Value))
	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		v := strings.TrimSpace(values[0])
		if (strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[")) && json.Valid([]byte(v)) {
			fields[key] = json.RawMessage(v)
			continue
		}
		encoded, err := json.Marshal(values[0])
		if err != nil {
			return files, apperr.Invalid("invalid form field %q", key)
		}
		fields[key] = encoded
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return files, apperr.Internal("failed to read form", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return files, apperr.Invalid("invalid form fields")
	}

	for _, field := range fileFields {
		for _, header := range r.MultipartForm.File[field] {
			path, err := u.spool(header.Filename, func() (io.ReadCloser, error) { return header.Open() })
			if err != nil {
				files.cleanup(r)
				return received{}, apperr.Internal("failed to receive upload", err)
			}
			files[field] = append(files[field], path)
		}
	}
	return files, nil
}

// spool copies an uploaded file into the upload directory, keeping its extension.
func (u Uploads) spool(name string, open func() (io.ReadCloser, error)) (string, error) {
	src, err := open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := u.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	dst, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	return dst.Name(), nil
}

// pathID returns a URL parameter that must be a UUID.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Invalid("invalid %s", name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid("%s must be an integer", name)
	}
	return v, nil
}

// pageParams reads page and limit. Zero values fall back to the engine defaults.
func pageParams(r *http.Request) (page, limit int, err error) {
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
