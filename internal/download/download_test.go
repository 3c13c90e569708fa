package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSucceedsFromFirstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("package bytes"))
	}))
	defer srv.Close()

	c := NewClient()
	dest := filepath.Join(t.TempDir(), "foo-1.0-1-x86_64.pkg.tar.zst")
	err := c.Fetch(context.Background(), []string{srv.URL}, "foo-1.0-1-x86_64.pkg.tar.zst", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "package bytes", string(data))
}

func TestFetchFallsBackToSecondServer(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer good.Close()

	c := NewClient()
	dest := filepath.Join(t.TempDir(), "foo.pkg.tar.zst")
	err := c.Fetch(context.Background(), []string{bad.URL, good.URL}, "foo.pkg.tar.zst", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestFetchAllServersFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	c := NewClient()
	dest := filepath.Join(t.TempDir(), "foo.pkg.tar.zst")
	err := c.Fetch(context.Background(), []string{bad.URL}, "foo.pkg.tar.zst", dest)
	assert.Error(t, err)
}

func TestFetchNoServers(t *testing.T) {
	c := NewClient()
	err := c.Fetch(context.Background(), nil, "foo.pkg.tar.zst", filepath.Join(t.TempDir(), "foo"))
	assert.Error(t, err)
}
