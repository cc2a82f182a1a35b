package persist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// maxImageBytes bounds downloads of the origin image.
const maxImageBytes = 64 << 20

// URLSource loads the origin image over HTTP.
type URLSource struct {
	URL  string
	HTTP *http.Client
}

// Load implements editor.Source.
func (s URLSource) Load(ctx context.Context) ([]byte, error) {
	return FetchImage(ctx, s.HTTP, s.URL)
}

// FetchImage downloads the image at url. A nil client uses
// http.DefaultClient.
func FetchImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("fetch %s: image larger than %d bytes", url, maxImageBytes)
	}
	return data, nil
}

// FileSource loads the origin image from disk.
type FileSource string

// Load implements editor.Source.
func (p FileSource) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
