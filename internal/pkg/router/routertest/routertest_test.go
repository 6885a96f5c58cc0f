package routertest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/shandysiswandi/portal/internal/pkg/router/routertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpointSrc = `package inbound

type HTTPEndpoint struct{}

// Track records an event.
// @Summary Track event
// @Tags Analytics
// @Router /api/v1/analytics [post]
func (h *HTTPEndpoint) Track() {}

func (h *HTTPEndpoint) Undocumented() {}

func (h *HTTPEndpoint) helper() {}

func Track() {}
`

type fakeJWT struct{}

func (fakeJWT) Generate(jwt.Subject) (string, error) { return "token", nil }
func (fakeJWT) Verify(string) (jwt.Claims, error)    { return jwt.Claims{}, jwt.ErrInvalidToken }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "cid" }

func TestParseDocs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "http_endpoint.go")
	require.NoError(t, os.WriteFile(file, []byte(endpointSrc), 0o600))

	docs := routertest.ParseDocs(t, file)

	assert.Equal(t, []routertest.Doc{
		{Handler: "Track", Summary: "Track event", Method: "POST", Path: "/api/v1/analytics"},
		{Handler: "Undocumented"},
	}, docs)
}

func TestMounted(t *testing.T) {
	r := router.NewRouter(router.Config{UUID: fixedUUID{}, JWT: fakeJWT{}, Instrument: instrument.NewNoop(), ServiceName: "portal"})
	r.POST("/api/v1/analytics", func(*router.Request) (any, error) { return nil, nil })
	r.GET("/api/v1/account/orders/:id", func(*router.Request) (any, error) { return nil, nil })

	assert.True(t, routertest.Mounted(r, "POST", "/api/v1/analytics"))
	assert.True(t, routertest.Mounted(r, "GET", "/api/v1/account/orders/{id}"), "guarded routes still match")
	assert.False(t, routertest.Mounted(r, "GET", "/api/v1/analytics"))
	assert.False(t, routertest.Mounted(r, "POST", "/api/v1/unknown"))
}
