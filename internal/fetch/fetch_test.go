package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDownload_WritesFileAndReportsProgress serves a body and checks the stored file.
func TestDownload_WritesFileAndReportsProgress(t *testing.T) {
	t.Parallel()

	body := []byte("pretend this is a bzip2 tarball")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "ffmpeg-7.2.tar.bz2")

	var lastWritten, lastTotal int64

	err := Download(context.Background(), ts.Client(), ts.URL+"/ffmpeg-7.2.tar.bz2", dest, func(written, total int64) {
		lastWritten, lastTotal = written, total
	})
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, body, got)
	require.Equal(t, int64(len(body)), lastWritten)
	require.Equal(t, int64(len(body)), lastTotal)

	_, err = os.Stat(dest + PartSuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDownload_BadStatusLeavesNothing ensures a 404 creates neither the file nor a partial file.
func TestDownload_BadStatusLeavesNothing(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "ffmpeg-0.0.tar.bz2")

	err := Download(context.Background(), nil, ts.URL+"/ffmpeg-0.0.tar.bz2", dest, nil)
	require.ErrorIs(t, err, ErrBadHTTPStatus)
	require.Contains(t, err.Error(), "404")

	_, err = os.Stat(dest)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(dest + PartSuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDownload_TruncatedBodyRemovesPart checks that a short body is not kept.
func TestDownload_TruncatedBodyRemovesPart(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Promise more bytes than are sent so the client sees an unexpected EOF.
		w.Header().Set("Content-Length", "1024")
		_, _ = w.Write([]byte("short"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "ffmpeg-7.2.tar.bz2")

	err := Download(context.Background(), ts.Client(), ts.URL, dest, nil)
	require.Error(t, err)

	_, err = os.Stat(dest)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(dest + PartSuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDownload_CanceledContext fails before any request is made.
func TestDownload_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "ffmpeg-7.2.tar.bz2")

	err := Download(ctx, nil, "http://127.0.0.1:1/ffmpeg-7.2.tar.bz2", dest, nil)
	require.ErrorIs(t, err, context.Canceled)
}
