package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/annotator/internal/blob"
	"github.com/example/annotator/internal/server"
	"github.com/example/annotator/internal/store"
)

const defaultDataSource = "annotator.db"

// serveCmd runs the annotation server.
type serveCmd struct {
	*root
	fs         *flag.FlagSet
	listen     string
	storage    string
	dataSource string
	blobDir    string
	bucket     string
	csrfToken  string
	csrfHeader string
	publicURL  string
	origins    string
}

func (s *serveCmd) FlagSet() *flag.FlagSet { return s.fs }

func (s *serveCmd) Program() string { return s.subcommand("serve") }

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := r.config.Server
	s := &serveCmd{root: r, fs: fs}
	fs.StringVar(&s.listen, "listen", cfg.Listen, "listen address")
	fs.StringVar(&s.storage, "storage", cfg.Storage, "storage type: memory, filesystem, sqlite or s3")
	fs.StringVar(&s.dataSource, "dsn", cfg.DataSource, "SQLite data source for upload records")
	fs.StringVar(&s.blobDir, "blob-dir", cfg.BlobDir, "directory for image files")
	fs.StringVar(&s.bucket, "bucket", cfg.Bucket, "S3 bucket for image files")
	fs.StringVar(&s.csrfToken, "csrf-token", cfg.CSRFToken, "CSRF token required on POST requests")
	fs.StringVar(&s.csrfHeader, "csrf-header", cfg.CSRFHeader, "header carrying the CSRF token")
	fs.StringVar(&s.publicURL, "public-url", cfg.PublicURL, "URL prefix used in links returned to clients")
	fs.StringVar(&s.origins, "origins", "", "comma separated extra CORS origins")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

// openUploads picks the upload record store. Records live in SQLite when
// the storage type is sqlite or a data source is given.
func (s *serveCmd) openUploads(ctx context.Context) (store.UploadStore, error) {
	if s.storage != "sqlite" && s.dataSource == "" {
		return store.NewMemory(), nil
	}
	dsn := s.dataSource
	if dsn == "" {
		dsn = defaultDataSource
	}
	return store.NewSQLite(ctx, dsn)
}

func (s *serveCmd) handler(ctx context.Context) (http.Handler, func() error, error) {
	uploads, err := s.openUploads(ctx)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := blob.FromConfig(ctx, blob.Config{Type: s.storage, Dir: s.blobDir, Bucket: s.bucket})
	if err != nil {
		uploads.Close()
		return nil, nil, err
	}
	opts := []server.Option{
		server.WithCSRF(s.csrfToken, s.csrfHeader),
		server.WithPublicURL(s.publicURL),
		server.WithLogger(s.log),
	}
	if s.origins != "" {
		opts = append(opts, server.WithAllowedOrigins(strings.Split(s.origins, ",")...))
	}
	return server.New(uploads, blobs, opts...).Router(), uploads.Close, nil
}

func (s *serveCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if s.csrfToken == "" {
		s.log.Warn("no CSRF token configured; POST requests are not protected")
	}
	h, closeStore, err := s.handler(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": s.listen, "storage": s.storage}).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
