package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAuthContext(t *testing.T, header string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/sync/trigger", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	return c
}

func TestTokenAuth_ValidToken(t *testing.T) {
	c := newAuthContext(t, "Bearer secret")
	TokenAuth("secret")(c)
	require.False(t, c.IsAborted())
}

func TestTokenAuth_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
	}{
		{name: "missing header", token: "secret", header: ""},
		{name: "wrong token", token: "secret", header: "Bearer nope"},
		{name: "not bearer", token: "secret", header: "Basic secret"},
		{name: "no token configured", token: "", header: "Bearer secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAuthContext(t, tt.header)
			TokenAuth(tt.token)(c)
			require.True(t, c.IsAborted())
		})
	}
}

func TestTokenAuth_BearerCaseInsensitive(t *testing.T) {
	c := newAuthContext(t, "bearer secret")
	TokenAuth("secret")(c)
	require.False(t, c.IsAborted())
}
