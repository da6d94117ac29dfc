package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"storefront-backend/services"

	"github.com/gin-gonic/gin"
)

// CleanupRunner executes one maintenance sweep.
type CleanupRunner interface {
	Run(ctx context.Context) *services.CleanupResult
}

type CronController struct {
	cleanup CleanupRunner
	secret  string
}

func NewCronController(cleanup CleanupRunner, secret string) *CronController {
	return &CronController{cleanup: cleanup, secret: secret}
}

// Cleanup runs the maintenance sweep. The scheduler authenticates with a
// shared bearer secret, not a user token.
func (cc *CronController) Cleanup(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if cc.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cc.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result := cc.cleanup.Run(c.Request.Context())
	c.JSON(http.StatusOK, result)
}
