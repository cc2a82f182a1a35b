// Package persist talks to the endpoint that stores edited images.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCSRFHeader is the request header carrying the CSRF token.
const DefaultCSRFHeader = "X-CSRFToken"

// ErrNoEndpoint is returned when the URL for an operation is not configured.
var ErrNoEndpoint = errors.New("endpoint url not configured")

// ServerError is an error message reported by the endpoint in its JSON body.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// ServerMessage returns the message exactly as the endpoint sent it.
func (e *ServerError) ServerMessage() string { return e.Message }

// Response is the JSON body returned by the save and restore endpoints.
type Response struct {
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type saveRequest struct {
	ImageData string `json:"image_data"`
}

// Client posts edits to the save and restore endpoints of one upload.
type Client struct {
	SaveURL    string
	RestoreURL string
	Token      string
	Header     string

	http *http.Client
	log  logrus.FieldLogger
}

// Option modifies a Client during creation.
type Option func(*Client)

// WithCSRF sets the token and the header it is sent in. An empty header
// keeps DefaultCSRFHeader.
func WithCSRF(token, header string) Option {
	return func(c *Client) {
		c.Token = token
		if header != "" {
			c.Header = header
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(c *Client) { c.log = l } }

// NewClient returns a Client for the given endpoints.
func NewClient(saveURL, restoreURL string, opts ...Option) *Client {
	c := &Client{
		SaveURL:    saveURL,
		RestoreURL: restoreURL,
		Header:     DefaultCSRFHeader,
		http:       &http.Client{Timeout: 60 * time.Second},
		log:        logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Save uploads dataURL as the edited image.
func (c *Client) Save(ctx context.Context, dataURL string) error {
	if c.SaveURL == "" {
		return fmt.Errorf("save: %w", ErrNoEndpoint)
	}
	body, err := json.Marshal(saveRequest{ImageData: dataURL})
	if err != nil {
		return fmt.Errorf("encode save request: %w", err)
	}
	resp, err := c.post(ctx, c.SaveURL, body)
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"url": c.SaveURL, "message": resp.Message}).Debug("save accepted")
	return nil
}

// Restore asks the endpoint to delete the edited image and returns the
// redirect target it reports, which may be empty.
func (c *Client) Restore(ctx context.Context) (string, error) {
	if c.RestoreURL == "" {
		return "", fmt.Errorf("restore: %w", ErrNoEndpoint)
	}
	resp, err := c.post(ctx, c.RestoreURL, nil)
	if err != nil {
		return "", err
	}
	c.log.WithFields(logrus.Fields{"url": c.RestoreURL, "message": resp.Message}).Debug("restore accepted")
	return resp.RedirectURL, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set(c.Header, c.Token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer res.Body.Close()

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("post %s: decode response (status %d): %w", url, res.StatusCode, err)
	}
	if out.Error != "" {
		return nil, &ServerError{Status: res.StatusCode, Message: out.Error}
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("post %s: unexpected status %s", url, res.Status)
	}
	return &out, nil
}
