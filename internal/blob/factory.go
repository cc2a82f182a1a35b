package blob

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Config selects and parameterises a blob Store.
type Config struct {
	// Type is "filesystem", "s3" or "memory". "sqlite" keeps blobs on the
	// filesystem next to the database. Anything else means memory.
	Type   string
	Dir    string
	Bucket string
}

// DefaultDir is used by the filesystem store when Dir is empty.
const DefaultDir = "./data"

// FromConfig builds the Store named by cfg.Type.
func FromConfig(ctx context.Context, cfg Config) (Store, error) {
	fields := logrus.Fields{"storage_type": cfg.Type}
	var (
		st  Store
		err error
	)
	switch cfg.Type {
	case "filesystem", "sqlite":
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir
		}
		fields["base_path"] = dir
		st, err = NewFilesystem(dir)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket name")
		}
		fields["bucket"] = cfg.Bucket
		st, err = NewS3(ctx, cfg.Bucket)
	default:
		fields["storage_type"] = "in-memory"
		st = NewMemory()
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(fields).Info("Use blob storage")
	return st, nil
}
