package collector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roadrunner-server/errors"

	"github.com/crimson-sun/runlog/internal/model"
)

// DefaultWait is the wait hint passed to the sender when none is given.
const DefaultWait = 5 * time.Millisecond

// BuildFunc produces an envelope on demand. Senders call it when they are
// ready to deliver, which is when the log stack is consumed.
type BuildFunc func() (model.Envelope, error)

// Sender delivers envelopes in submission order unless noQueue is set.
type Sender interface {
	Send(build BuildFunc, noQueue bool, wait time.Duration) error
}

// Pipeline holds the user hooks applied to a consumed stack. Every field is
// optional. Hooks run in this order: FilterLog on both sequences,
// ProcessLog on the terminal one, ProcessFileLog on the file one, then
// CollectTestLogs with the terminal sequence.
type Pipeline struct {
	FilterLog       func(model.LogEntry) bool
	ProcessLog      func(model.LogEntry) model.LogEntry
	ProcessFileLog  func(model.LogEntry) model.LogEntry
	CollectTestLogs func(model.TestData, []model.LogEntry)
}

// SendOptions override what is read from the runnable.
type SendOptions struct {
	State        model.State
	Title        string
	NoQueue      bool
	Wait         *time.Duration // nil means DefaultWait
	Continuous   bool
	ConsoleTitle string
	IsHook       bool
}

// Controller turns finished tests into envelopes and hands them to a Sender.
type Controller struct {
	store    *Store
	sender   Sender
	pipeline Pipeline
	logger   *slog.Logger
}

// NewController creates a Controller. A nil logger falls back to slog.Default.
func NewController(store *Store, sender Sender, pipeline Pipeline, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		sender:   sender,
		pipeline: pipeline,
		logger:   logger,
	}
}

// SendLogsToPrinter submits the logs collected at index for the finished
// runnable r. Runnables without a resolvable spec file are framework noise
// and are skipped without error.
func (c *Controller) SendLogsToPrinter(index int, r *model.Runnable, opts SendOptions) error {
	state := opts.State
	if state == "" {
		state = r.State
	}
	title := opts.Title
	if title == "" {
		title = r.Title
	}

	spec := ResolveSpecFile(r)
	if spec == "" {
		c.logger.Debug("no spec file for runnable, skipping", "test", title, "index", index)
		return nil
	}

	wait := DefaultWait
	if opts.Wait != nil {
		wait = *opts.Wait
	}

	level := 0
	for p := r.Parent; p != nil && p.Title != ""; p = p.Parent {
		title = p.Title + " -> " + title
		level++
	}

	if state == model.StateFailed && r.Retries > 0 {
		title += fmt.Sprintf(" (Attempt %d)", r.CurrentRetry+1)
	}

	data := model.TestData{Runnable: r, State: state, Title: title, Level: level}
	build := func() (model.Envelope, error) {
		fileMessages, terminalMessages, err := c.PrepareLogs(index, data)
		if err != nil {
			return model.Envelope{}, err
		}
		return model.Envelope{
			Spec:             spec,
			Test:             title,
			FileMessages:     fileMessages,
			TerminalMessages: terminalMessages,
			State:            state,
			Level:            level,
			ConsoleTitle:     opts.ConsoleTitle,
			IsHook:           opts.IsHook,
			Continuous:       opts.Continuous,
		}, nil
	}

	return c.sender.Send(build, opts.NoQueue, wait)
}

// PrepareLogs consumes the stack at index and runs the pipeline over it,
// returning the file-bound and terminal-bound sequences.
func (c *Controller) PrepareLogs(index int, data model.TestData) (fileMessages, terminalMessages []model.LogEntry, err error) {
	const op = errors.Op("collector_prepare_logs")

	stack, ok := c.store.ConsumeLogStacks(index)
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrNullLogStack)
	}

	terminalMessages = make([]model.LogEntry, len(stack))
	copy(terminalMessages, stack)
	fileMessages = make([]model.LogEntry, len(stack))
	copy(fileMessages, stack)

	p := c.pipeline
	if p.FilterLog != nil {
		terminalMessages = filterEntries(terminalMessages, p.FilterLog)
		fileMessages = filterEntries(fileMessages, p.FilterLog)
	}
	if p.ProcessLog != nil {
		mapEntries(terminalMessages, p.ProcessLog)
	}
	if p.ProcessFileLog != nil {
		mapEntries(fileMessages, p.ProcessFileLog)
	}
	if p.CollectTestLogs != nil {
		p.CollectTestLogs(data, terminalMessages)
	}

	return fileMessages, terminalMessages, nil
}

// FilterTypes returns a FilterLog hook keeping only entries whose type is
// listed. With no types every entry is kept.
func FilterTypes(types ...string) func(model.LogEntry) bool {
	if len(types) == 0 {
		return func(model.LogEntry) bool { return true }
	}
	keep := make(map[string]struct{}, len(types))
	for _, t := range types {
		keep[t] = struct{}{}
	}
	return func(e model.LogEntry) bool {
		_, ok := keep[e.Type]
		return ok
	}
}

func filterEntries(entries []model.LogEntry, keep func(model.LogEntry) bool) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func mapEntries(entries []model.LogEntry, f func(model.LogEntry) model.LogEntry) {
	for i, e := range entries {
		entries[i] = f(e)
	}
}
