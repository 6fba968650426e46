package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/shared/server/middleware"
	"filevault/internal/shared/server/respond"
)

type Handler struct {
	Svc    *Service
	Admins middleware.AdminValidator
}

func NewHandler(svc *Service, admins middleware.AdminValidator) *Handler {
	return &Handler{Svc: svc, Admins: admins}
}

// RegisterRoutes attaches the admin-only account routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin", middleware.RequireAdmin(h.Admins))
	admin.POST("/accounts/delete", h.remove)
}

type removeRequest struct {
	Subject string `json:"subject"`
}

func (h *Handler) remove(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}

	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Svc.RemoveAccount(c.Request.Context(), req.Subject)
	if err != nil {
		if errors.Is(err, ErrSubjectRequired) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "subject is required", []map[string]string{
				{"field": "subject", "issue": "required"},
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_unavailable", "failed to remove account files", nil)
		return
	}

	status := http.StatusOK
	if result.Partial() {
		status = http.StatusMultiStatus
	}
	respond.JSON(c, status, result)
}
