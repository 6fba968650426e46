package objects

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filevault/internal/shared/auth"
	"filevault/internal/shared/server/middleware"
	"filevault/internal/shared/server/respond"
	"filevault/internal/shared/telemetry"
)

const uploadField = "file"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64 // 0 means unlimited
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches file routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files", h.upload)
	rg.GET("/files", h.list)
	rg.GET("/files/:id", h.download)
	rg.GET("/files/:id/meta", h.describe)
	rg.DELETE("/files/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	// Parts are consumed as a stream; the form is never buffered in memory.
	reader, err := c.Request.MultipartReader()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart/form-data body required", nil)
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
			return
		}
		if err != nil {
			writeError(c, errors.Join(ErrSourceUnavailable, err))
			return
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}
		if part.FileName() == "" {
			part.Close()
			respond.Error(c, http.StatusBadRequest, "validation_error", "file name is required", nil)
			return
		}

		obj, err := h.Svc.Upload(c.Request.Context(), identity, part.FileName(), part)
		part.Close()
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set("objectId", obj.ID)
		respond.JSON(c, http.StatusCreated, UploadResponse{
			ID:        obj.ID,
			Filename:  obj.Name,
			SizeBytes: obj.SizeBytes,
		})
		return
	}
}

func (h *Handler) list(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	objs, err := h.Svc.List(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toListResponse(objs))
}

func (h *Handler) describe(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	id := c.Param("id")
	c.Set("objectId", id)

	obj, err := h.Svc.Describe(c.Request.Context(), identity, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(obj))
}

func (h *Handler) download(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	id := c.Param("id")
	c.Set("objectId", id)

	dl, err := h.Svc.Download(c.Request.Context(), identity, id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer dl.Close()

	// The first increment is fetched before any header goes out so a dead backend still gets a real status.
	first, err := dl.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(c, err)
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Disposition", contentDisposition(dl.Object.Name))
	header.Set("Content-Length", strconv.FormatInt(dl.Object.SizeBytes, 10))
	c.Status(http.StatusOK)

	written := int64(0)
	if len(first) > 0 {
		n, werr := c.Writer.Write(first)
		written += int64(n)
		err = werr
	}
	if err == nil {
		var n int64
		n, err = dl.WriteTo(c.Writer)
		written += n
	}
	if err != nil && !errors.Is(err, io.EOF) {
		// Headers are already sent; the truncated body is the only signal the client gets.
		telemetry.Error("objects.download_interrupted", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"object_id":  id,
			"written":    written,
			"size_bytes": dl.Object.SizeBytes,
			"error":      err.Error(),
		})
		c.Abort()
	}
}

func (h *Handler) delete(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	id := c.Param("id")
	c.Set("objectId", id)

	if err := h.Svc.Delete(c.Request.Context(), identity, id); err != nil {
		writeError(c, err)
		return
	}
	respond.Message(c, "file deleted")
}

func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit", nil)
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
	case errors.Is(err, ErrSourceUnavailable):
		respond.Error(c, http.StatusBadRequest, "source_unavailable", "upload stream could not be read", nil)
	case errors.Is(err, ErrStorageUnavailable):
		respond.Error(c, http.StatusInternalServerError, "storage_unavailable", "storage is unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
