// CLAUDE:SUMMARY Download helpers for import adapters: retried HTTP fetch and CSV extraction from ZIP payloads.
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const downloadAttempts = 3

var (
	zipMagic = []byte("PK\x03\x04")

	downloadClient = &http.Client{Timeout: 10 * time.Minute}
)

// downloadFile fetches url into dest. Network errors and 5xx answers are
// retried with exponential backoff; other statuses fail at once.
func downloadFile(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := range downloadAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
		}
		retry, err := fetchOnce(ctx, url, dest)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return eris.Wrapf(lastErr, "download %s failed after %d attempts", url, downloadAttempts)
}

func fetchOnce(ctx context.Context, url, dest string) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, eris.Wrap(err, "create request")
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode >= 500, eris.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return false, eris.Wrap(err, "create file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return true, eris.Wrap(err, "read body")
	}
	return false, f.Close()
}

// extractCSV copies the first .csv entry of the archive at src into destDir.
func extractCSV(src, destDir string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", eris.Wrap(err, "open zip")
	}
	defer r.Close()

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(entry.Name), ".csv") {
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(entry.Name))
		if err := copyEntry(entry, dest); err != nil {
			return "", eris.Wrapf(err, "extract %s", entry.Name)
		}
		return dest, nil
	}
	return "", eris.New("no CSV found in ZIP")
}

func copyEntry(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// fetchCSV downloads sourceURL into dlDir and returns the path of a CSV file,
// unpacking the download first when it is a ZIP archive.
func fetchCSV(ctx context.Context, sourceURL, dlDir string) (string, error) {
	if err := os.MkdirAll(dlDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create %s", dlDir)
	}
	payload := filepath.Join(dlDir, "payload")
	if err := downloadFile(ctx, sourceURL, payload); err != nil {
		return "", eris.Wrap(err, "download")
	}
	isZip, err := hasPrefix(payload, zipMagic)
	if err != nil {
		return "", err
	}
	if !isZip {
		return payload, nil
	}
	return extractCSV(payload, dlDir)
}

func hasPrefix(path string, prefix []byte) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	head := make([]byte, len(prefix))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, eris.Wrapf(err, "read %s", path)
	}
	return bytes.Equal(head[:n], prefix), nil
}
