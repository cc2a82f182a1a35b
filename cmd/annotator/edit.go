package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/theme"
	"github.com/example/annotator/internal/ui"
)

// editCmd opens the editor window.
type editCmd struct {
	*root
	fs     *flag.FlagSet
	remote remoteFlags
	tool   string
	size   int
	color  string
	image  string
}

func (e *editCmd) FlagSet() *flag.FlagSet { return e.fs }

func (e *editCmd) Program() string { return e.subcommand("edit") }

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	e := &editCmd{root: r, fs: fs}
	e.remote.bind(fs, r)
	fs.StringVar(&e.tool, "tool", "", "starting tool (brush, eraser, crop)")
	fs.IntVar(&e.size, "size", 0, "starting brush size")
	fs.StringVar(&e.color, "color", "", "starting brush color (name or #rrggbb)")
	fs.Usage = usageFunc(e)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, &UsageError{of: e, msg: "edit takes at most one image"}
	}
	e.image = fs.Arg(0)
	if e.image == "" && !e.remote.enabled() {
		return nil, &UsageError{of: e, msg: "no image given"}
	}
	return e, nil
}

// sessionOptions turns flags and config into editor options.
func (e *editCmd) sessionOptions() ([]editor.Option, error) {
	brush := e.startBrush()
	if e.size > 0 {
		brush.Size = e.size
	}
	if e.color != "" {
		c, err := theme.ParseColor(e.color)
		if err != nil {
			return nil, err
		}
		brush.Color = c
	}
	tool := e.startTool()
	if e.tool != "" {
		t, err := editor.ParseTool(e.tool)
		if err != nil {
			return nil, err
		}
		tool = t
	}
	return []editor.Option{
		editor.WithBrush(brush),
		editor.WithTool(tool),
		editor.WithLogger(e.log),
	}, nil
}

func (e *editCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := e.remote.source(e.image)
	if err != nil {
		return err
	}
	opts, err := e.sessionOptions()
	if err != nil {
		return err
	}
	if e.remote.enabled() {
		p, err := e.remote.persister(ctx, e.root)
		if err != nil {
			return fmt.Errorf("connect to server: %w", err)
		}
		opts = append(opts, editor.WithPersister(p))
	}

	title := e.image
	if e.remote.enabled() {
		title = "upload " + e.remote.upload
	}
	reload := func(ctx context.Context, redirect string, extra ...editor.Option) (*editor.Session, error) {
		if redirect != "" {
			e.log.WithField("redirect", redirect).Debug("reloading after redirect")
		}
		sess := editor.New(append(append([]editor.Option{}, opts...), extra...)...)
		if err := sess.Load(ctx, src); err != nil {
			return nil, err
		}
		return sess, nil
	}
	win := ui.NewWindow(
		ui.WithTheme(e.activeTheme),
		ui.WithNotifier(e.notifier),
		ui.WithLogger(e.log),
		ui.WithTitle("Annotator - "+title),
		ui.WithReload(reload),
	)

	sess := editor.New(append(opts, editor.WithChangeListener(win.SessionChanged))...)
	go func() {
		if err := sess.Load(ctx, src); err != nil {
			e.log.WithField("error", err).Error("could not load image")
		}
	}()
	win.Run(ctx, sess)
	return nil
}
