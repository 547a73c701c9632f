package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// PartSuffix marks a download that has not completed yet.
const PartSuffix = ".part"

// defaultFileMode is used for downloaded files.
const defaultFileMode os.FileMode = 0o644

// ErrBadHTTPStatus is returned when the server answers with anything but 200 OK.
var ErrBadHTTPStatus = errors.New("unexpected http status")

// ProgressFunc receives the bytes written so far and the expected total,
// which is -1 when the server did not send Content-Length.
type ProgressFunc func(written, total int64)

// ProgressWriter wraps a writer and reports progress after every write.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer
	// Total is the expected total bytes (from Content-Length header).
	Total int64
	// Written is the current number of bytes written.
	Written int64
	// OnUpdate is called after each Write with current progress.
	OnUpdate ProgressFunc
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)

	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}

	return n, err
}

// Download fetches rawURL with a single GET and stores the body at dest.
// The body is streamed into dest+PartSuffix and renamed on success, so dest
// only ever holds a complete download. The partial file is removed on failure.
func Download(ctx context.Context, client *http.Client, rawURL, dest string, onProgress ProgressFunc) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}

	response, err := client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", rawURL, response.Status, ErrBadHTTPStatus)
	}

	partPath := filepath.Clean(dest + PartSuffix)

	if err = writePart(partPath, response, onProgress); err != nil {
		_ = os.Remove(partPath)

		return err
	}

	if err = os.Rename(partPath, dest); err != nil {
		_ = os.Remove(partPath)

		return fmt.Errorf("finish download: %w", err)
	}

	return nil
}

func writePart(partPath string, response *http.Response, onProgress ProgressFunc) error {
	outputFile, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return err
	}

	writer := &ProgressWriter{
		Writer:   outputFile,
		Total:    response.ContentLength,
		OnUpdate: onProgress,
	}

	if _, err = io.Copy(writer, response.Body); err != nil {
		_ = outputFile.Close()

		return fmt.Errorf("read response body: %w", err)
	}

	return outputFile.Close()
}
