package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, "minio", Options{})
	require.ErrorIs(t, err, ErrBucketRequired)

	_, err = New(ctx, "ftp", Options{Bucket: "docs"})
	require.ErrorIs(t, err, ErrUnknownDriver)

	s, err := New(ctx, " MinIO ", Options{Bucket: "docs", MinIO: MinIOConfig{Endpoint: "localhost:9000"}})
	require.NoError(t, err)
	assert.IsType(t, &MinIO{}, s)
}

// fakeBucket answers the S3 calls minio-go makes for a single bucket.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		body, ok := b.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", b.types[r.URL.Path])
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.objects[r.URL.Path] = body
		b.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newMinIO(t *testing.T) (*MinIO, *fakeBucket) {
	t.Helper()

	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	m, err := NewMinIO("docs", MinIOConfig{
		Endpoint:  u.Host,
		Region:    "us-east-1",
		AccessKey: "access",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return m, bucket
}

func TestMinIO_PutThenExists(t *testing.T) {
	m, bucket := newMinIO(t)
	ctx := context.Background()

	ok, err := m.Exists(ctx, "invoices/cus_1/o1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	err = m.Put(ctx, "invoices/cus_1/o1.pdf", Document{Body: []byte("%PDF"), ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Contains(t, string(bucket.objects["/docs/invoices/cus_1/o1.pdf"]), "%PDF")
	assert.Equal(t, "application/pdf", bucket.types["/docs/invoices/cus_1/o1.pdf"])

	ok, err = m.Exists(ctx, "invoices/cus_1/o1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, m.Close())
}

func TestMinIO_Link(t *testing.T) {
	m, _ := newMinIO(t)

	link, err := m.Link(context.Background(), "invoices/cus_1/o1.pdf", LinkOptions{
		TTL:      5 * time.Minute,
		Filename: "factura-o1.pdf",
	})
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/docs/invoices/cus_1/o1.pdf", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "attachment; filename=factura-o1.pdf", u.Query().Get("response-content-disposition"))
}

func TestLinkOptions_ContentDisposition(t *testing.T) {
	assert.Empty(t, LinkOptions{}.contentDisposition())
	assert.Equal(t, `attachment; filename="factura 1.pdf"`, LinkOptions{Filename: "factura 1.pdf"}.contentDisposition())
}

func TestGCS_LinkWithoutSigner(t *testing.T) {
	g := &GCS{bucket: "docs", now: time.Now}

	_, err := g.Link(context.Background(), "k", LinkOptions{TTL: time.Minute})
	require.ErrorIs(t, err, ErrNoSigner)
}
