package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup map[string]bool

func (l lookup) Known(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.New("db down")
	}
	return l[id], nil
}

func fixedIssuer(at time.Time) *Issuer {
	iss := NewIssuer("fpattend", "secret", 15*time.Minute, 24*time.Hour)
	iss.Now = func() time.Time { return at }
	return iss
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	iss := fixedIssuer(now)

	pair, err := iss.Issue("esp32-1", RoleDevice)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), pair.AccessExp)
	assert.Equal(t, now.Add(24*time.Hour), pair.RefreshExp)

	claims, err := iss.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "esp32-1", claims.Subject)
	assert.Equal(t, RoleDevice, claims.Role)
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	pair, err := fixedIssuer(now).Issue("esp32-1", RoleDevice)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		iss := fixedIssuer(now)
		iss.Key = []byte("other")
		_, err := iss.Parse(pair.AccessToken)
		assert.Error(t, err)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		iss := fixedIssuer(now)
		iss.Name = "someone-else"
		_, err := iss.Parse(pair.AccessToken)
		assert.Error(t, err)
	})
	t.Run("expired", func(t *testing.T) {
		_, err := fixedIssuer(now.Add(time.Hour)).Parse(pair.AccessToken)
		assert.Error(t, err)
	})
}

func TestDeviceAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	iss := fixedIssuer(now)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.POST("/attendance", DeviceAuth(iss, lookup{"esp32-1": true}, log), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(Claims)
		c.String(http.StatusOK, claims.Subject)
	})

	token := func(sub, role string) string {
		pair, err := iss.Issue(sub, role)
		require.NoError(t, err)
		return "Bearer " + pair.AccessToken
	}

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", token("esp32-1", "admin"), http.StatusUnauthorized},
		{"unknown device", token("esp32-9", RoleDevice), http.StatusUnauthorized},
		{"lookup failure", token("broken", RoleDevice), http.StatusInternalServerError},
		{"ok", token("esp32-1", RoleDevice), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/attendance", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "esp32-1", w.Body.String())
			}
		})
	}
}
