package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/persist"
)

// remoteFlags select an upload on an annotation server.
type remoteFlags struct {
	server     string
	upload     string
	csrfToken  string
	csrfHeader string
	timeout    time.Duration
}

func (f *remoteFlags) bind(fs *flag.FlagSet, r *root) {
	def := ""
	if r != nil && r.config.Server.PublicURL != "" {
		def = r.config.Server.PublicURL
	} else if r != nil && r.config.Server.Listen != "" {
		def = "http://" + r.config.Server.Listen
	}
	token, header := "", persist.DefaultCSRFHeader
	if r != nil {
		token = r.config.Server.CSRFToken
		if r.config.Server.CSRFHeader != "" {
			header = r.config.Server.CSRFHeader
		}
	}
	fs.StringVar(&f.server, "server", def, "base URL of the annotation server")
	fs.StringVar(&f.upload, "upload", "", "upload id on the server")
	fs.StringVar(&f.csrfToken, "csrf", token, "CSRF token; fetched from the server when empty")
	fs.StringVar(&f.csrfHeader, "csrf-header", header, "header carrying the CSRF token")
	fs.DurationVar(&f.timeout, "timeout", 30*time.Second, "HTTP request timeout")
}

func (f *remoteFlags) enabled() bool { return f.upload != "" }

func (f *remoteFlags) httpClient() *http.Client {
	return &http.Client{Timeout: f.timeout}
}

func (f *remoteFlags) endpoints() persist.Endpoints {
	return persist.UploadEndpoints(f.server, f.upload)
}

// persister builds the save and restore client, fetching the CSRF token
// when none was given.
func (f *remoteFlags) persister(ctx context.Context, r *root) (*persist.Client, error) {
	if f.server == "" {
		return nil, fmt.Errorf("-server is required with -upload")
	}
	ep := f.endpoints()
	token, header := f.csrfToken, f.csrfHeader
	if token == "" {
		var err error
		token, header, err = persist.FetchCSRF(ctx, f.httpClient(), ep.CSRF)
		if err != nil {
			return nil, err
		}
	}
	return persist.NewClient(ep.Save, ep.Restore,
		persist.WithCSRF(token, header),
		persist.WithHTTPClient(f.httpClient()),
		persist.WithLogger(r.log),
	), nil
}

// source picks where the image comes from: an explicit URL or file, else
// the upload's current image.
func (f *remoteFlags) source(arg string) (editor.Source, error) {
	switch {
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return persist.URLSource{URL: arg, HTTP: f.httpClient()}, nil
	case arg != "":
		return persist.FileSource(arg), nil
	case f.enabled():
		return persist.URLSource{URL: f.endpoints().Image, HTTP: f.httpClient()}, nil
	}
	return nil, fmt.Errorf("no image given: pass a file, a URL or -upload")
}
