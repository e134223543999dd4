package handler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/takeco/cmms/internal/config"
)

type UploadHandler struct {
	cfg *config.Config
}

func NewUploadHandler(cfg *config.Config) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

type UploadedFile struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Upload POST /api/uploads
// Accepts multipart "files" (or a single "file") and stores them under a
// year/month directory below the configured upload dir.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "Failed to parse upload: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		BadRequest(c, "No files uploaded")
		return
	}
	if len(files) > h.cfg.Upload.MaxFiles {
		BadRequest(c, fmt.Sprintf("At most %d files per upload", h.cfg.Upload.MaxFiles))
		return
	}

	maxSize := int64(h.cfg.Upload.MaxSizeMB) << 20
	now := time.Now()
	subdir := fmt.Sprintf("%d/%02d", now.Year(), now.Month())
	dir := filepath.Join(h.cfg.Upload.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		Fail(c, fmt.Errorf("create upload dir: %w", err))
		return
	}

	var uploaded []UploadedFile
	for _, fh := range files {
		if fh.Size > maxSize {
			BadRequest(c, fmt.Sprintf("File %q exceeds the %dMB limit", fh.Filename, h.cfg.Upload.MaxSizeMB))
			return
		}

		fileID := uuid.New().String()
		savedName := fileID + filepath.Ext(fh.Filename)
		savePath := filepath.Join(dir, savedName)

		src, err := fh.Open()
		if err != nil {
			Fail(c, fmt.Errorf("open upload: %w", err))
			return
		}
		dst, err := os.Create(savePath)
		if err != nil {
			src.Close()
			Fail(c, fmt.Errorf("create file: %w", err))
			return
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			Fail(c, fmt.Errorf("write file: %w", err))
			return
		}

		uploaded = append(uploaded, UploadedFile{
			ID:          fileID,
			URL:         fmt.Sprintf("%s/%s/%s", h.cfg.Upload.BaseURL, subdir, savedName),
			Filename:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	Created(c, uploaded)
}
