package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stock-repair-service/middleware"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func guardedRouter(key string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.AdminKey(key))
	r.GET("/guarded", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r *gin.Engine, headerKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if headerKey != "" {
		req.Header.Set("X-Admin-Key", headerKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminKey_CorrectKeyPasses(t *testing.T) {
	r := guardedRouter("hunter2")
	assert.Equal(t, http.StatusOK, get(r, "hunter2").Code)
}

func TestAdminKey_WrongKeyRejected(t *testing.T) {
	r := guardedRouter("hunter2")
	assert.Equal(t, http.StatusUnauthorized, get(r, "hunter3").Code)
}

func TestAdminKey_MissingKeyRejected(t *testing.T) {
	r := guardedRouter("hunter2")
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
}

func TestAdminKey_DisabledWhenUnconfigured(t *testing.T) {
	r := guardedRouter("")
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}
