package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/raster"
	"github.com/example/annotator/internal/theme"
)

// op is one scripted edit.
type op struct {
	name string
	pts  []image.Point
}

func parseOp(s string) (op, error) {
	name, args, _ := strings.Cut(strings.TrimSpace(s), ":")
	o := op{name: strings.ToLower(name)}
	switch o.name {
	case "undo", "redo", "clear":
		if args != "" {
			return op{}, fmt.Errorf("%s takes no coordinates", o.name)
		}
		return o, nil
	case "stroke", "erase", "crop":
	default:
		return op{}, fmt.Errorf("unknown operation %q", name)
	}
	fields := strings.Split(args, ",")
	if len(fields) < 4 || len(fields)%2 != 0 {
		return op{}, fmt.Errorf("%s needs pairs of coordinates, got %q", o.name, args)
	}
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return op{}, fmt.Errorf("%s: invalid x %q", o.name, fields[i])
		}
		y, err := strconv.Atoi(strings.TrimSpace(fields[i+1]))
		if err != nil {
			return op{}, fmt.Errorf("%s: invalid y %q", o.name, fields[i+1])
		}
		o.pts = append(o.pts, image.Pt(x, y))
	}
	if o.name == "crop" && len(o.pts) != 2 {
		return op{}, fmt.Errorf("crop needs exactly two corners")
	}
	return o, nil
}

// apply drives sess through o the way pointer input would.
func (o op) apply(sess *editor.Session) error {
	switch o.name {
	case "undo":
		sess.Undo()
		return nil
	case "redo":
		sess.Redo()
		return nil
	case "clear":
		return sess.ClearAll(editor.Always)
	}
	tool := editor.ToolBrush
	switch o.name {
	case "erase":
		tool = editor.ToolEraser
	case "crop":
		tool = editor.ToolCrop
	}
	if err := sess.SetTool(tool); err != nil {
		return err
	}
	if err := sess.PointerDown(o.pts[0]); err != nil {
		return err
	}
	for _, p := range o.pts[1 : len(o.pts)-1] {
		if err := sess.PointerMove(p); err != nil {
			return err
		}
	}
	if err := sess.PointerUp(o.pts[len(o.pts)-1]); err != nil {
		return err
	}
	if o.name == "crop" {
		return sess.ApplyCrop()
	}
	return nil
}

// applyCmd edits an image without a window.
type applyCmd struct {
	*root
	fs     *flag.FlagSet
	remote remoteFlags
	input  string
	output string
	size   int
	color  string
	ops    []op
	stdout io.Writer
}

func (a *applyCmd) FlagSet() *flag.FlagSet { return a.fs }

func (a *applyCmd) Program() string { return a.subcommand("apply") }

func parseApplyCmd(args []string, r *root) (*applyCmd, error) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	a := &applyCmd{root: r, fs: fs, stdout: os.Stdout}
	a.remote.bind(fs, r)
	fs.StringVar(&a.input, "i", "", "input image file or URL (default: the upload's image)")
	fs.StringVar(&a.output, "o", "", "write the result to this PNG file")
	fs.IntVar(&a.size, "size", 0, "brush size")
	fs.StringVar(&a.color, "color", "", "brush color (name or #rrggbb)")
	fs.Usage = usageFunc(a)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, &UsageError{of: a, msg: "no operations given"}
	}
	for _, s := range fs.Args() {
		o, err := parseOp(s)
		if err != nil {
			return nil, err
		}
		a.ops = append(a.ops, o)
	}
	if a.output == "" && !a.remote.enabled() {
		return nil, &UsageError{of: a, msg: "nothing to do with the result: pass -o or -upload"}
	}
	return a, nil
}

func (a *applyCmd) Run() error {
	ctx := context.Background()
	src, err := a.remote.source(a.input)
	if err != nil {
		return err
	}

	brush := a.startBrush()
	if a.size > 0 {
		brush.Size = a.size
	}
	if a.color != "" {
		c, err := theme.ParseColor(a.color)
		if err != nil {
			return err
		}
		brush.Color = c
	}
	opts := []editor.Option{editor.WithBrush(brush), editor.WithLogger(a.log)}
	if a.remote.enabled() {
		p, err := a.remote.persister(ctx, a.root)
		if err != nil {
			return fmt.Errorf("connect to server: %w", err)
		}
		opts = append(opts, editor.WithPersister(p))
	}

	sess := editor.New(opts...)
	if err := sess.Load(ctx, src); err != nil {
		return err
	}
	for _, o := range a.ops {
		if err := o.apply(sess); err != nil {
			return fmt.Errorf("%s: %w", o.name, err)
		}
	}

	if a.output != "" {
		data, err := raster.EncodePNG(sess.Canvas())
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.output, err)
		}
		a.log.WithField("path", a.output).Info("image written")
	}
	if a.remote.enabled() {
		if err := sess.Save(ctx); err != nil {
			var re *editor.RequestError
			if errors.As(err, &re) {
				return errors.New(re.UserMessage())
			}
			return err
		}
		fmt.Fprintln(a.stdout, "Image saved successfully!")
		if a.notifier != nil {
			a.notifier.Save("upload "+a.remote.upload, sess.Canvas())
		}
	}
	return nil
}
