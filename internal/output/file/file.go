package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/runlog/internal/model"
	"github.com/crimson-sun/runlog/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

// Format selects the on-disk representation of a spec log.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
)

// ParseFormat validates s. Empty input means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want txt or json)", s)
}

// Option configures a file Output.
type Option func(*Output)

// WithFormat sets the file format. Default: txt.
func WithFormat(f Format) Option {
	return func(o *Output) { o.format = f }
}

// WithSpecRoot strips root from spec paths before mapping them under the
// output directory.
func WithSpecRoot(root string) Option {
	return func(o *Output) { o.specRoot = filepath.ToSlash(root) }
}

// WithPolicy sets which envelopes are written. Default: always.
func WithPolicy(p output.Policy) Option {
	return func(o *Output) { o.policy = p }
}

// WithSuccessfulHooks writes logs of hooks that passed.
func WithSuccessfulHooks() Option {
	return func(o *Output) { o.successfulHooks = true }
}

// WithBufSize sets the bufio.Writer buffer size per spec file. Default: 64KB.
// Each envelope is flushed as a whole, so this only bounds write syscalls
// within one envelope.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// record is one line of a json-format spec log.
type record struct {
	Test       string           `json:"test"`
	State      model.State      `json:"state,omitempty"`
	Level      int              `json:"level"`
	IsHook     bool             `json:"isHook,omitempty"`
	Continuous bool             `json:"continuous,omitempty"`
	Messages   []model.LogEntry `json:"messages"`
}

type specFile struct {
	f *os.File
	w *bufio.Writer
}

// Output writes the file messages of every envelope into one log file per
// spec under root. A spec's file is truncated the first time it is written
// in this process and appended to afterwards.
type Output struct {
	mu              sync.Mutex
	root            string
	specRoot        string
	format          Format
	policy          output.Policy
	successfulHooks bool
	bufSize         int
	files           map[string]*specFile
	closed          bool
}

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("file output: closed")

// New creates a file output rooted at dir. The directory is created if needed.
func New(dir string, opts ...Option) (*Output, error) {
	o := &Output{
		root:    dir,
		format:  FormatText,
		policy:  output.PolicyAlways,
		bufSize: defaultBufSize,
		files:   make(map[string]*specFile),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("file output: mkdir %s: %w", dir, err)
	}
	return o, nil
}

// Write appends the envelope's file messages to its spec's log and flushes
// it, so a crashed collector keeps everything written so far.
func (o *Output) Write(_ context.Context, env model.Envelope) error {
	if !o.policy.Allows(env, o.successfulHooks) || len(env.FileMessages) == 0 {
		return nil
	}

	data, err := o.encode(env)
	if err != nil {
		return fmt.Errorf("file output: encode: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}

	sf, err := o.open(o.PathFor(env.Spec))
	if err != nil {
		return err
	}
	if _, err := sf.w.Write(data); err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	if err := sf.w.Flush(); err != nil {
		return fmt.Errorf("file output: flush: %w", err)
	}
	return nil
}

// Close flushes and closes every open spec file. Later writes fail with
// ErrClosed rather than reopening, and truncating, a spec's log.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true

	var firstErr error
	for path, sf := range o.files {
		if err := sf.w.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("file output: flush %s: %w", path, err)
		}
		if err := sf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("file output: close %s: %w", path, err)
		}
	}
	o.files = make(map[string]*specFile)
	return firstErr
}

// PathFor maps a spec path to its log file: the spec root is stripped, the
// extension is replaced by the format's, and the result is kept under root.
func (o *Output) PathFor(spec string) string {
	rel := filepath.ToSlash(spec)
	if o.specRoot != "" {
		rel = strings.TrimPrefix(rel, strings.TrimSuffix(o.specRoot, "/")+"/")
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + string(o.format)

	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(rel, "/")))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		clean = filepath.Base(clean)
	}
	return filepath.Join(o.root, clean)
}

// open returns the writer for path, creating the file on first use.
// Caller must hold o.mu.
func (o *Output) open(path string) (*specFile, error) {
	if sf, ok := o.files[path]; ok {
		return sf, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("file output: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("file output: open %s: %w", path, err)
	}
	sf := &specFile{f: f, w: bufio.NewWriterSize(f, o.bufSize)}
	o.files[path] = sf
	return sf, nil
}

func (o *Output) encode(env model.Envelope) ([]byte, error) {
	if o.format == FormatJSON {
		data, err := json.Marshal(record{
			Test:       env.Test,
			State:      env.State,
			Level:      env.Level,
			IsHook:     env.IsHook,
			Continuous: env.Continuous,
			Messages:   env.FileMessages,
		})
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}

	var b strings.Builder
	b.WriteString(output.StateIcon(env.State))
	b.WriteByte(' ')
	b.WriteString(env.Test)
	b.WriteByte('\n')
	for _, e := range env.FileMessages {
		b.WriteString(output.FormatEntry(e))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
