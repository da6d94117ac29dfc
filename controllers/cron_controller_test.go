package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCleanupRunner struct {
	result *services.CleanupResult
	calls  int
}

func (s *stubCleanupRunner) Run(ctx context.Context) *services.CleanupResult {
	s.calls++
	return s.result
}

func cronRouter(runner CleanupRunner, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ctrl := NewCronController(runner, secret)
	r.GET("/cron/cleanup", ctrl.Cleanup)
	return r
}

func TestCronCleanup_ResponseShape(t *testing.T) {
	runner := &stubCleanupRunner{result: &services.CleanupResult{
		Success:                true,
		Timestamp:              time.Now().UTC(),
		ExpiredLocksCleaned:    3,
		ExpiredOrdersCancelled: 1,
		Errors:                 []string{},
	}}
	router := cronRouter(runner, "cron-secret")

	req := httptest.NewRequest(http.MethodGet, "/cron/cleanup", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, runner.calls)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, float64(3), body["expired_locks_cleaned"])
	assert.Equal(t, float64(1), body["expired_orders_cancelled"])
	errorsField, ok := body["errors"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, errorsField)
}

func TestCronCleanup_WrongSecret(t *testing.T) {
	runner := &stubCleanupRunner{result: &services.CleanupResult{}}
	router := cronRouter(runner, "cron-secret")

	req := httptest.NewRequest(http.MethodGet, "/cron/cleanup", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, runner.calls)
}

func TestCronCleanup_UnconfiguredSecretAlwaysRejected(t *testing.T) {
	runner := &stubCleanupRunner{result: &services.CleanupResult{}}
	router := cronRouter(runner, "")

	req := httptest.NewRequest(http.MethodGet, "/cron/cleanup", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, runner.calls)
}
