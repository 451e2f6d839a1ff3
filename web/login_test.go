package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/login", LoginPage())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `id="email"`)
	assert.Contains(t, body, `id="password"`)
	assert.Contains(t, body, "/api/auth/login")
	assert.Contains(t, body, "localStorage.setItem('token'")
	// post-login the user lands on the events page, not the JSON API
	assert.Contains(t, body, "window.location.href = '/events'")
}
