package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"abbey/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c).String()})
	})
	return r
}

func doRequest(r *gin.Engine, header string) (*httptest.ResponseRecorder, map[string]string) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthMiddleware(t *testing.T) {
	r := setupRouter()
	id := uuid.New()

	valid, err := jwt.GenerateToken(id, secret, time.Hour)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken(id, secret, -time.Hour)
	require.NoError(t, err)
	foreign, err := jwt.GenerateToken(id, "someone-else", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		code    int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "No token provided. Authorization header must be: Bearer <token>"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "No token provided. Authorization header must be: Bearer <token>"},
		{"empty bearer", "Bearer  ", http.StatusUnauthorized, "No token provided"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest(r, tt.header)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.message, body["error"])
		})
	}

	t.Run("valid", func(t *testing.T) {
		w, body := doRequest(r, "Bearer "+valid)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id.String(), body["id"])
	})
}
