package ui

// confirmGate is an editor.Confirmer for the window: the first request for
// a prompt arms it and is refused, a second consecutive request for the same
// prompt is approved.
type confirmGate struct {
	armed string
}

func (g *confirmGate) Confirm(prompt string) bool {
	if g.armed == prompt {
		g.armed = ""
		return true
	}
	g.armed = prompt
	return false
}

// reset disarms the gate; any other user action calls it.
func (g *confirmGate) reset() { g.armed = "" }

func (g *confirmGate) pending() bool { return g.armed != "" }
