package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/annotator/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch section {
		case "":
			err = setRootField(cfg, key, value)
		case "editor":
			err = setEditorField(&cfg.Editor, key, value)
		case "server":
			setServerField(&cfg.Server, key, value)
		case "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			name := "root section"
			if section != "" {
				name = "section [" + section + "]"
			}
			return nil, fmt.Errorf("line %d: error in %s: %w", lineNo, name, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "theme":
		cfg.Theme = value
	}
	return nil
}

func setEditorField(e *Editor, key, value string) error {
	switch key {
	case "tool":
		e.Tool = value
	case "brush_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid brush_size %q", value)
		}
		e.BrushSize = n
	case "brush_color":
		c, err := theme.ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid brush_color: %w", err)
		}
		e.BrushColor = c
	}
	return nil
}

func setServerField(s *Server, key, value string) {
	switch key {
	case "listen":
		s.Listen = value
	case "storage":
		s.Storage = value
	case "data_source":
		s.DataSource = value
	case "blob_dir":
		s.BlobDir = value
	case "bucket":
		s.Bucket = value
	case "csrf_token":
		s.CSRFToken = value
	case "csrf_header":
		s.CSRFHeader = value
	case "public_url":
		s.PublicURL = value
	}
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch key {
	case "save":
		n.Save = b
	case "restore":
		n.Restore = b
	case "copy":
		n.Copy = b
	}
	return nil
}
