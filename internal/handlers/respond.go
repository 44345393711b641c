package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scalpelprep/scalpelprep-backend/internal/apierr"
)

// writeError maps the service error taxonomy onto HTTP statuses. Anything
// untyped is a 500.
func writeError(c *gin.Context, err error) {
	if ae := apierr.From(err); ae != nil {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": ae.Code, "detail": ae.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "detail": err.Error()})
}
