package ingest

import "fmt"

const defaultMaxDiagnostics = 20

// diagnostics keeps the first max messages and counts the rest.
type diagnostics struct {
	max      int
	messages []string
	dropped  int
}

func newDiagnostics(max int) *diagnostics {
	if max <= 0 {
		max = defaultMaxDiagnostics
	}
	return &diagnostics{max: max, messages: []string{}}
}

func (d *diagnostics) add(format string, args ...any) {
	if len(d.messages) >= d.max {
		d.dropped++
		return
	}
	d.messages = append(d.messages, fmt.Sprintf(format, args...))
}

func (d *diagnostics) list() []string {
	if d.dropped == 0 {
		return d.messages
	}
	out := make([]string, len(d.messages), len(d.messages)+1)
	copy(out, d.messages)
	return append(out, fmt.Sprintf("... and %d more", d.dropped))
}
