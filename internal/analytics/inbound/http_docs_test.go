package inbound

import (
	"net/http"
	"testing"

	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/router"
	"github.com/shandysiswandi/portal/internal/pkg/router/routertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_APIDocs(t *testing.T) {
	r := router.NewRouter(router.Config{UUID: fixedUUID{}, JWT: fakeJWT{}, Instrument: instrument.NewNoop(), ServiceName: "portal"})
	RegisterHTTPEndpoint(r, &fakeUC{})

	docs := routertest.ParseDocs(t, "http.go")
	require.Len(t, docs, 1)

	d := docs[0]
	assert.Equal(t, "Track event", d.Summary)
	assert.Equal(t, http.MethodPost, d.Method)
	assert.True(t, routertest.Mounted(r, d.Method, d.Path))
}
