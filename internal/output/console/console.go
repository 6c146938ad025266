package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/crimson-sun/runlog/internal/model"
	"github.com/crimson-sun/runlog/internal/output"
)

// Option configures a console Output.
type Option func(*Output)

// WithPolicy sets which envelopes are printed. Default: onFail.
func WithPolicy(p output.Policy) Option {
	return func(o *Output) { o.policy = p }
}

// WithSuccessfulHooks prints logs of hooks that passed.
func WithSuccessfulHooks() Option {
	return func(o *Output) { o.successfulHooks = true }
}

// Output renders terminal messages as coloured, column-aligned text.
type Output struct {
	mu              sync.Mutex
	w               io.Writer
	theme           Theme
	policy          output.Policy
	successfulHooks bool
}

// New creates a console Output writing to w.
func New(w io.Writer, opts ...Option) *Output {
	o := &Output{
		w:      w,
		theme:  NewTheme(lipgloss.NewRenderer(w)),
		policy: output.PolicyOnFail,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write prints the envelope's terminal messages when the policy allows it.
// Continuous flushes print their entries without a title line.
func (o *Output) Write(_ context.Context, env model.Envelope) error {
	if !o.policy.Allows(env, o.successfulHooks) || len(env.TerminalMessages) == 0 {
		return nil
	}

	var b strings.Builder
	if !env.Continuous {
		o.writeTitle(&b, env)
	}
	for _, e := range env.TerminalMessages {
		o.writeEntry(&b, e)
	}
	b.WriteByte('\n')

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := io.WriteString(o.w, b.String()); err != nil {
		return fmt.Errorf("console output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

func (o *Output) writeTitle(b *strings.Builder, env model.Envelope) {
	title := env.ConsoleTitle
	if title == "" {
		title = env.Test
	}
	b.WriteString(strings.Repeat("  ", env.Level))
	b.WriteString(o.theme.state(env.State).Render(output.StateIcon(env.State)))
	b.WriteByte(' ')
	b.WriteString(o.theme.Title.Render(title))
	b.WriteByte('\n')
}

func (o *Output) writeEntry(b *strings.Builder, e model.LogEntry) {
	if e.TimeString != "" {
		b.WriteString(output.Padding)
		b.WriteString(o.theme.Debug.Render("Time: " + e.TimeString))
		b.WriteByte('\n')
	}
	style := o.entryStyle(e)
	icon := output.EntryIcon(e)
	b.WriteString(style.Render(output.PadType(e.Type)))
	b.WriteByte(' ')
	b.WriteString(style.Render(icon))
	b.WriteString("  ")
	b.WriteString(output.IndentMessage(e.Message))
	b.WriteByte('\n')
}

func (o *Output) entryStyle(e model.LogEntry) lipgloss.Style {
	switch output.EntryIcon(e) {
	case output.IconError:
		return o.theme.Error
	case output.IconWarning:
		return o.theme.Warning
	case output.IconSuccess:
		return o.theme.Success
	case output.IconDebug:
		return o.theme.Debug
	case output.IconRoute:
		return o.theme.Route
	}
	return o.theme.Info
}
