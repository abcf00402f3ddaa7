package api

import (
	"net/http"

	"ecolearn_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with the same envelope: {"success": bool} plus
// either "data" or "error".

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func respondValidation(c *gin.Context, vErr *service.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":    false,
		"error":      "validation failed",
		"violations": vErr.Violations,
	})
}
