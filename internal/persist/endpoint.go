package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Endpoints are the URLs of one upload on an annotation server.
type Endpoints struct {
	Image   string
	Save    string
	Restore string
	CSRF    string
}

// UploadEndpoints builds the URLs for upload id on the server at base.
func UploadEndpoints(base, id string) Endpoints {
	base = strings.TrimRight(base, "/")
	prefix := base + "/uploads/" + id
	return Endpoints{
		Image:   prefix + "/image",
		Save:    prefix + "/save_image",
		Restore: prefix + "/restore_original",
		CSRF:    base + "/csrf",
	}
}

// FetchCSRF asks the server for its CSRF token and header name.
func FetchCSRF(ctx context.Context, client *http.Client, url string) (token, header string, err error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch csrf token: %s", resp.Status)
	}
	var body struct {
		Token  string `json:"token"`
		Header string `json:"header"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("decode csrf response: %w", err)
	}
	if body.Header == "" {
		body.Header = DefaultCSRFHeader
	}
	return body.Token, body.Header, nil
}
