package config

import "os"

// Environment variables that override the [server] section.
const (
	EnvCSRFToken   = "ANNOTATOR_CSRF_TOKEN"
	EnvStorageType = "STORAGE_TYPE"
	EnvDataSource  = "DATA_SOURCE_NAME"
	EnvBlobDir     = "LOCAL_STORAGE_PATH"
	EnvBucket      = "S3_BUCKET_NAME"
)

// ApplyEnv overrides server settings from the environment. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for env, dst := range map[string]*string{
		EnvCSRFToken:   &c.Server.CSRFToken,
		EnvStorageType: &c.Server.Storage,
		EnvDataSource:  &c.Server.DataSource,
		EnvBlobDir:     &c.Server.BlobDir,
		EnvBucket:      &c.Server.Bucket,
	} {
		if v, ok := lookup(env); ok && v != "" {
			*dst = v
		}
	}
}
