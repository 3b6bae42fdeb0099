// Package media stores uploaded source files (video, audio, images) on
// disk keyed by file id, and serves them back to the editor.
package media

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cutline/cutline/backend-go/internal/typeid"
)

const maxUploadSize = 512 << 20 // 512MB

var allowedTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// FileInfo describes a stored media file.
type FileInfo struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Handler serves media upload, listing, and retrieval endpoints.
type Handler struct {
	dir string // directory to store media files
}

// NewHandler creates a new media handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create media dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /media/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "file too large (max 512MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedTypes[contentType]
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported media type %q", contentType), http.StatusBadRequest)
		return
	}

	fileID := typeid.NewFileID()
	filename := fileID + ext
	filePath := filepath.Join(h.dir, filename)

	size, err := saveFile(filePath, file)
	if err != nil {
		slog.Error("save media file", "error", err)
		os.Remove(filePath)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	resp := UploadResponse{
		ID:   fileID,
		URL:  fmt.Sprintf("/media/%s", filename),
		Type: contentType,
		Name: header.Filename,
		Size: size,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// List handles GET /media and returns every stored file.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		slog.Error("read media dir", "error", err)
		http.Error(w, "failed to list media", http.StatusInternalServerError)
		return
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		files = append(files, FileInfo{
			ID:   strings.TrimSuffix(name, ext),
			URL:  fmt.Sprintf("/media/%s", name),
			Type: mime.TypeByExtension(ext),
			Size: info.Size(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(files)
}

// Serve returns an http.Handler that serves stored media files with
// caching headers. File ids are unique, so files never change in place.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/media/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Resolve returns the on-disk path for a stored file id, or an error if
// no file with that id exists.
func (h *Handler) Resolve(fileID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(h.dir, fileID+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("media file not found: %s", fileID)
	}
	return matches[0], nil
}

// Delete removes a media file from disk.
func (h *Handler) Delete(fileID string) error {
	path, err := h.Resolve(fileID)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func saveFile(dst string, src io.Reader) (int64, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()
	return io.Copy(out, src)
}
