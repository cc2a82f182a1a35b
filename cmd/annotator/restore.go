package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/annotator/internal/editor"
)

// promptConfirmer asks on a terminal.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// restoreCmd discards the saved edit of an upload.
type restoreCmd struct {
	*root
	fs     *flag.FlagSet
	remote remoteFlags
	yes    bool
	stdin  io.Reader
	stdout io.Writer
}

func (c *restoreCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *restoreCmd) Program() string { return c.subcommand("restore") }

func parseRestoreCmd(args []string, r *root) (*restoreCmd, error) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	c := &restoreCmd{root: r, fs: fs, stdin: os.Stdin, stdout: os.Stdout}
	c.remote.bind(fs, r)
	fs.BoolVar(&c.yes, "yes", false, "do not ask for confirmation")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !c.remote.enabled() {
		return nil, &UsageError{of: c, msg: "-upload is required"}
	}
	return c, nil
}

func (c *restoreCmd) Run() error {
	ctx := context.Background()
	var confirm editor.Confirmer = promptConfirmer{in: c.stdin, out: c.stdout}
	if c.yes {
		confirm = editor.Always
	}
	// Confirm before connecting so a refusal costs no request.
	if !confirm.Confirm(editor.RestorePrompt) {
		return nil
	}
	p, err := c.remote.persister(ctx, c.root)
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	sess := editor.New(editor.WithPersister(p), editor.WithLogger(c.log))
	redirect, err := sess.RestoreOriginal(ctx, editor.Always)
	if err != nil {
		var re *editor.RequestError
		if errors.As(err, &re) {
			return errors.New(re.UserMessage())
		}
		return err
	}
	// Without a redirect the upload's image is reloaded in place.
	if redirect == "" {
		fmt.Fprintln(c.stdout, "Nothing to restore.")
		redirect = c.remote.endpoints().Image
	} else {
		fmt.Fprintln(c.stdout, "Original image restored.")
	}
	fmt.Fprintln(c.stdout, redirect)
	if c.notifier != nil {
		c.notifier.Restore("upload " + c.remote.upload)
	}
	return nil
}
