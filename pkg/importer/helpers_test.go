package importer

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFile(t *testing.T) {
	content := "hello world"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, downloadFile(context.Background(), ts.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestDownloadFile_Retry(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	require.NoError(t, downloadFile(context.Background(), ts.URL, dest))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDownloadFile_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := downloadFile(context.Background(), ts.URL, filepath.Join(t.TempDir(), "fail.txt"))
	assert.Error(t, err)
}

func zipBytes(t *testing.T, name, content string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestFetchCSV(t *testing.T) {
	payloads := map[string][]byte{
		"/plain.csv": []byte("a,b\n1,2\n"),
		"/list.zip":  zipBytes(t, "inner/list.csv", "a,b\n3,4\n"),
		"/empty.zip": zipBytes(t, "readme.txt", "nothing"),
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payloads[r.URL.Path])
	}))
	defer ts.Close()

	path, err := fetchCSV(context.Background(), ts.URL+"/plain.csv", t.TempDir())
	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	path, err = fetchCSV(context.Background(), ts.URL+"/list.zip", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "list.csv", filepath.Base(path))
	data, _ = os.ReadFile(path)
	assert.Equal(t, "a,b\n3,4\n", string(data))

	_, err = fetchCSV(context.Background(), ts.URL+"/empty.zip", t.TempDir())
	assert.Error(t, err)
}

func TestDownloadFile_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	err := downloadFile(context.Background(), ts.URL, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Equal(t, int32(1), attempts.Load())
}
