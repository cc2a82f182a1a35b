package config

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/example/annotator/internal/theme"
)

// Editor holds the initial tool settings.
type Editor struct {
	Tool       string
	BrushSize  int
	BrushColor color.RGBA
}

// Server holds the persistence endpoint settings.
type Server struct {
	Listen     string
	Storage    string // memory, filesystem, sqlite or s3
	DataSource string
	BlobDir    string
	Bucket     string
	CSRFToken  string
	CSRFHeader string
	PublicURL  string
}

// Notify holds notification settings.
type Notify struct {
	Save    bool
	Restore bool
	Copy    bool
}

// Config holds the application configuration.
type Config struct {
	Theme  string
	Editor Editor
	Server Server
	Notify Notify
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Editor: Editor{
			Tool:       "brush",
			BrushSize:  10,
			BrushColor: color.RGBA{A: 255},
		},
		Server: Server{
			Listen:     "localhost:8080",
			Storage:    "memory",
			CSRFHeader: "X-CSRFToken",
		},
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
		sb.WriteString("\n")
	}

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Editor.Tool)
	fmt.Fprintf(&sb, "brush_size = %d\n", c.Editor.BrushSize)
	fmt.Fprintf(&sb, "brush_color = %s\n", theme.Hex(c.Editor.BrushColor))
	sb.WriteString("\n")

	sb.WriteString("[server]\n")
	writeOpt(&sb, "listen", c.Server.Listen)
	writeOpt(&sb, "storage", c.Server.Storage)
	writeOpt(&sb, "data_source", c.Server.DataSource)
	writeOpt(&sb, "blob_dir", c.Server.BlobDir)
	writeOpt(&sb, "bucket", c.Server.Bucket)
	writeOpt(&sb, "csrf_token", c.Server.CSRFToken)
	writeOpt(&sb, "csrf_header", c.Server.CSRFHeader)
	writeOpt(&sb, "public_url", c.Server.PublicURL)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "restore = %v\n", c.Notify.Restore)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)

	return sb.String()
}

func writeOpt(sb *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(sb, "%s = %s\n", key, value)
	}
}
