package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/shared/server/middleware"
	"filevault/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok || id.Subject == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"subject": id.Subject,
		"isAdmin": id.IsAdmin,
	})
}
