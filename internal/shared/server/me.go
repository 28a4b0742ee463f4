package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/auth"
	"greenintellect-backend/internal/shared/server/middleware"
	"greenintellect-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint, which reports the caller's identity and role.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	isAdmin := middleware.IsAdmin(c)
	role := auth.RoleUser
	if isAdmin {
		role = auth.RoleAdmin
	}
	// isAdmin drives the admin dashboard link in the client.
	response := gin.H{
		"userId":  userID,
		"role":    role,
		"isAdmin": isAdmin,
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	}

	respond.JSON(c, http.StatusOK, response)
}
