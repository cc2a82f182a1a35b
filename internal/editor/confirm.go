package editor

import "context"

const (
	ClearPrompt   = "Are you sure you want to clear all edits?"
	RestorePrompt = "Are you sure you want to delete the edited version and restore the original? This cannot be undone."
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Always approves every prompt. Useful for scripted edits.
var Always Confirmer = ConfirmFunc(func(string) bool { return true })

// Source supplies the initial bitmap.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Load(ctx context.Context) ([]byte, error) { return f(ctx) }

// Persister is the server side of save and restore.
type Persister interface {
	// Save stores the encoded image.
	Save(ctx context.Context, dataURL string) error
	// Restore discards the saved edit and returns an optional redirect target.
	Restore(ctx context.Context) (string, error)
}
