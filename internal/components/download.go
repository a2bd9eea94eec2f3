package components

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

// ProgressFunc reports cumulative bytes downloaded against the known (or
// zero if unknown) total.
type ProgressFunc func(downloaded, total int64)

// progressReader wraps an io.Reader and reports cumulative bytes read.
type progressReader struct {
	r          io.Reader
	total      int64
	downloaded int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.downloaded += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.downloaded, p.total)
		}
	}
	return n, err
}

// download streams url into a unique temporary file under destDir —
// never a fixed shared name, so concurrent installs cannot collide — and
// returns its path. If a partial file from a prior attempt is found at
// resumeFrom, the request uses an HTTP Range header to continue it.
func download(ctx context.Context, client *http.Client, url, destDir string, resumeFrom string, onProgress ProgressFunc) (string, error) {
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return "", subgenerr.IO(destDir, err)
	}

	tmpPath := resumeFrom
	var startOffset int64
	if tmpPath == "" {
		tmpPath = filepath.Join(destDir, uuid.NewString()+".part")
	} else if info, err := os.Stat(tmpPath); err == nil {
		startOffset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	if startOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", startOffset))
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusOK:
		flags |= os.O_TRUNC
		startOffset = 0
	case http.StatusPartialContent:
		flags |= os.O_APPEND
	default:
		return "", fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	out, err := os.OpenFile(tmpPath, flags, 0o600)
	if err != nil {
		return "", subgenerr.IO(tmpPath, err)
	}
	defer out.Close()

	total := resp.ContentLength + startOffset
	pr := &progressReader{r: resp.Body, total: total, downloaded: startOffset, onProgress: onProgress}
	if _, err := io.Copy(out, pr); err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	return tmpPath, nil
}

// sha256File computes the hex SHA-256 of the file at path.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", subgenerr.IO(path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", subgenerr.IO(path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
