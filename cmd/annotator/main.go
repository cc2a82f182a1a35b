package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/example/annotator/internal/config"
	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/notify"
	"github.com/example/annotator/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	notifier     *notify.Notifier
	config       *config.Config
	log          *logrus.Logger
	logLevel     string
	saveAlerts   bool
	restoreAlert bool
	copyAlerts   bool
	themeName    string
	activeTheme  *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) string {
	return strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
}

func newRoot() *root {
	log := logrus.New()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithField("error", err).Warn("could not read .env file")
	}

	fs := flag.NewFlagSet("annotator", flag.ExitOnError)
	fs.StringVar(&configPathOverride, "config", configPathOverride, "path to the configuration file")
	// The config file location is needed before the other flag defaults
	// can be taken from it.
	_ = fs.Parse(configArgs(os.Args[1:]))

	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		log.WithField("error", err).Warn("failed to load config")
		cfg = config.New()
	}
	cfg.ApplyEnv(os.LookupEnv)

	r := &root{
		fs:       flag.NewFlagSet("annotator", flag.ExitOnError),
		program:  "annotator",
		notifier: notify.New(notify.LoadPreferences(), notify.WithLogger(log)),
		config:   cfg,
		log:      log,
	}
	r.fs.StringVar(&configPathOverride, "config", configPathOverride, "path to the configuration file")
	r.fs.StringVar(&r.logLevel, "loglevel", "info", "log level (debug, info, warn, error)")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.restoreAlert, "notify-restore", cfg.Notify.Restore, "show a desktop notification after restoring the original")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, light, dark)")
	r.fs.Usage = usageFunc(r)
	return r
}

var commands = map[string]bool{
	"edit": true, "apply": true, "restore": true, "serve": true, "config": true, "version": true,
}

// configArgs returns only the -config flag from the global flags in args so
// it can be parsed ahead of the rest.
func configArgs(args []string) []string {
	for i, a := range args {
		name := strings.TrimLeft(a, "-")
		switch {
		case a == "--", commands[a]:
			return nil
		case !strings.HasPrefix(a, "-"):
			continue
		case strings.HasPrefix(name, "config="):
			return []string{a}
		case name == "config" && i+1 < len(args):
			return []string{a, args[i+1]}
		}
	}
	return nil
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	level, err := logrus.ParseLevel(r.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	r.log.SetLevel(level)

	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventRestore, r.restoreAlert)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "apply":
		cmd, err = parseApplyCmd(subArgs, r)
	case "restore":
		cmd, err = parseRestoreCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) loadTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("ANNOTATOR_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			r.log.WithField("error", err).WithField("theme", name).Warn("failed to load theme, using default")
		}
		t = theme.Default()
	}
	return t
}

// startBrush returns the configured starting brush.
func (r *root) startBrush() editor.Brush {
	b := editor.DefaultBrush()
	if r.config.Editor.BrushSize > 0 {
		b.Size = r.config.Editor.BrushSize
	}
	b.Color = r.config.Editor.BrushColor
	return b
}

func (r *root) startTool() editor.Tool {
	t, err := editor.ParseTool(r.config.Editor.Tool)
	if err != nil {
		r.log.WithField("error", err).Warn("invalid tool in config")
	}
	return t
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
