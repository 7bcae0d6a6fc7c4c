package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithRole(t *testing.T, role string, roles ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if role != "" {
		c.Set("role", role)
	}
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return RequireRole(roles...)(next)(c)
}

func TestRequireRoleAllows(t *testing.T) {
	assert.NoError(t, runWithRole(t, "ADMIN", "ADMIN"))
	assert.NoError(t, runWithRole(t, "STUDENT", "ADMIN", "STUDENT"))
}

func TestRequireRoleRejects(t *testing.T) {
	for _, role := range []string{"STUDENT", "", "admin"} {
		err := runWithRole(t, role, "ADMIN")
		require.Error(t, err)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusForbidden, he.Code)
	}
}

func TestBearerToken(t *testing.T) {
	e := echo.New()
	mk := func(header string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		return e.NewContext(req, httptest.NewRecorder())
	}

	assert.Equal(t, "abc", bearerToken(mk("Bearer abc")))
	assert.Equal(t, "abc", bearerToken(mk("bearer abc"))) // scheme is case-insensitive
	assert.Empty(t, bearerToken(mk("")))
	assert.Empty(t, bearerToken(mk("Basic abc")))
	assert.Empty(t, bearerToken(mk("Bearer")))
}
