package health

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/interfaces/http/handlers/testutil"
)

func TestHealth(t *testing.T) {
	h := NewHandler("deskbridge", "production")
	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)

	h.Health(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "deskbridge", resp["service"])
	assert.Equal(t, "production", resp["environment"])
}

func TestHome(t *testing.T) {
	h := NewHandler("deskbridge", "development")
	c, w := testutil.NewTestContext(http.MethodGet, "/", nil)

	h.Home(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, testutil.Contains(w, "/slack/events"))
	assert.True(t, testutil.Contains(w, "/zendesk/webhook"))
}
