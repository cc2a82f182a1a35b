package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
theme = dark

[editor]
tool = eraser
brush_size = 24
brush_color = red

[server]
listen = :9000
storage = sqlite
data_source = "annotator.db"
csrf_token = abc

[notify]
save = true
restore = false
copy = true
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "dark" {
		t.Errorf("Expected theme 'dark', got '%s'", cfg.Theme)
	}
	if cfg.Editor.Tool != "eraser" || cfg.Editor.BrushSize != 24 {
		t.Errorf("Unexpected editor section: %+v", cfg.Editor)
	}
	if cfg.Editor.BrushColor != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("Unexpected brush colour: %+v", cfg.Editor.BrushColor)
	}
	if cfg.Server.Listen != ":9000" || cfg.Server.Storage != "sqlite" || cfg.Server.DataSource != "annotator.db" {
		t.Errorf("Unexpected server section: %+v", cfg.Server)
	}
	if cfg.Server.CSRFHeader != "X-CSRFToken" {
		t.Errorf("Expected default csrf header, got %q", cfg.Server.CSRFHeader)
	}
	if !cfg.Notify.Save || cfg.Notify.Restore || !cfg.Notify.Copy {
		t.Errorf("Unexpected notify section: %+v", cfg.Notify)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"[editor]\nbrush_size = big\n",
		"[editor]\nbrush_size = 0\n",
		"[editor]\nbrush_color = #12\n",
		"[notify]\nsave = maybe\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = light

[editor]
tool = crop
brush_size = 3
brush_color = #11223344

[server]
storage = s3
bucket = images
public_url = https://example.org

[notify]
save = true
restore = true
copy = false
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.Editor != cfg2.Editor {
		t.Errorf("Editor mismatch: %+v vs %+v", cfg.Editor, cfg2.Editor)
	}
	if cfg.Server != cfg2.Server {
		t.Errorf("Server mismatch: %+v vs %+v", cfg.Server, cfg2.Server)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	cfg.Server.Bucket = "from-file"
	env := map[string]string{
		EnvStorageType: "filesystem",
		EnvBlobDir:     "/srv/images",
		EnvCSRFToken:   "tok",
		EnvBucket:      "",
	}
	cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })

	if cfg.Server.Storage != "filesystem" || cfg.Server.BlobDir != "/srv/images" || cfg.Server.CSRFToken != "tok" {
		t.Errorf("Env not applied: %+v", cfg.Server)
	}
	if cfg.Server.Bucket != "from-file" {
		t.Errorf("Empty env value should not override, got %q", cfg.Server.Bucket)
	}
}

func TestLoaderOverrideAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.rc")
	l := NewLoader("1.0.0", path)

	cfg := New()
	cfg.Editor.BrushSize = 42
	saved, err := l.Save(cfg)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved != path {
		t.Errorf("Saved to %q, want %q", saved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config not written: %v", err)
	}

	loaded, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Editor.BrushSize != 42 {
		t.Errorf("Expected brush_size 42, got %d", loaded.Editor.BrushSize)
	}
}
