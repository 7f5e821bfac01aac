package controllers

import (
	"log"
	"net/http"

	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP. Lock
// timeouts are a retryable "system busy"; integrity errors are logged with
// full context and surfaced as opaque 500s.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsLockTimeout(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "system busy, please try again"})
	case services.IsIntegrityError(err):
		log.Printf("INTEGRITY: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal state inconsistency, the team has been notified"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func actorFrom(c *gin.Context) (id string, role string) {
	idVal, _ := c.Get("userID")
	roleVal, _ := c.Get("role")
	id, _ = idVal.(string)
	role, _ = roleVal.(string)
	return id, role
}

func requireAdmin(c *gin.Context) bool {
	_, role := actorFrom(c)
	return role == "ADMIN"
}
