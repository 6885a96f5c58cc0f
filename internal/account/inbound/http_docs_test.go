package inbound

import (
	"testing"

	"github.com/shandysiswandi/portal/internal/pkg/router/routertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_APIDocs(t *testing.T) {
	r, _ := newTestServer(t)

	docs := routertest.ParseDocs(t, "http_endpoint.go")
	require.Len(t, docs, 11)

	for _, d := range docs {
		t.Run(d.Handler, func(t *testing.T) {
			assert.NotEmpty(t, d.Summary)
			require.NotEmpty(t, d.Path)
			assert.True(t, routertest.Mounted(r, d.Method, d.Path), "%s %s is not served", d.Method, d.Path)
		})
	}
}
