package imageedit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DefaultMaxBytes bounds a fetched image. The images API rejects files over
// 4 MB anyway.
const DefaultMaxBytes = 4 << 20

// Fetcher resolves image URLs into bytes: data: URLs, http(s) URLs, file://
// URLs and plain file paths.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// Fetch returns the bytes behind rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("image url is empty")
	}
	switch {
	case strings.HasPrefix(rawURL, "data:"):
		return f.limit(decodeDataURL(rawURL))
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return f.fetchHTTP(ctx, rawURL)
	case strings.HasPrefix(rawURL, "file://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid file url: %w", err)
		}
		return f.readFile(u.Path)
	}
	return f.readFile(rawURL)
}

func (f *Fetcher) maxBytes() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *Fetcher) limit(b []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > f.maxBytes() {
		return nil, fmt.Errorf("image is larger than %d bytes", f.maxBytes())
	}
	return b, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer fh.Close()
	return f.limit(readAtMost(fh, f.maxBytes()))
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: %s", resp.Status)
	}
	return f.limit(readAtMost(resp.Body, f.maxBytes()))
}

// readAtMost reads up to max+1 bytes so that limit can detect oversized
// input without buffering all of it.
func readAtMost(r io.Reader, max int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return b, nil
}

// decodeDataURL decodes "data:[<mediatype>][;base64],<data>".
func decodeDataURL(s string) ([]byte, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("malformed data url: %w", err)
		}
		return b, nil
	}
	decoded, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("malformed data url: %w", err)
	}
	return []byte(decoded), nil
}
