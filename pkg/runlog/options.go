package runlog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/runlog/internal/collector"
	"github.com/crimson-sun/runlog/internal/config"
)

type options struct {
	pipeline     collector.Pipeline
	collectTypes []string
	wait         time.Duration
	bufferSize   int
	onError      func(error)
	logger       *slog.Logger
}

// Option configures a Collector.
type Option func(*options)

// WithFilter drops entries for which keep returns false, from both the
// file and the terminal messages.
func WithFilter(keep func(Entry) bool) Option {
	return func(o *options) { o.pipeline.FilterLog = keep }
}

// WithCollectTypes keeps only entries of the given types. Combined with
// WithFilter, an entry must pass both.
func WithCollectTypes(types ...string) Option {
	return func(o *options) { o.collectTypes = types }
}

// WithProcessLog maps each terminal-bound entry.
func WithProcessLog(f func(Entry) Entry) Option {
	return func(o *options) { o.pipeline.ProcessLog = f }
}

// WithProcessFileLog maps each file-bound entry.
func WithProcessFileLog(f func(Entry) Entry) Option {
	return func(o *options) { o.pipeline.ProcessFileLog = f }
}

// WithCollectTestLogs receives every finished test with its terminal entries.
func WithCollectTestLogs(f func(TestData, []Entry)) Option {
	return func(o *options) { o.pipeline.CollectTestLogs = f }
}

// WithWait sets the default wait hint for queued sends. Default: 5ms.
func WithWait(d time.Duration) Option {
	return func(o *options) { o.wait = d }
}

// WithBufferSize sets how many sends may queue before TestFinished blocks.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithOnError receives delivery failures of queued sends.
func WithOnError(f func(error)) Option {
	return func(o *options) { o.onError = f }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func defaultOptions() options {
	return options{wait: collector.DefaultWait}
}

// filter merges the type list into the configured filter.
func (o options) filter() func(Entry) bool {
	if len(o.collectTypes) == 0 {
		return o.pipeline.FilterLog
	}
	byType := collector.FilterTypes(o.collectTypes...)
	user := o.pipeline.FilterLog
	if user == nil {
		return byType
	}
	return func(e Entry) bool { return byType(e) && user(e) }
}

// FromEnv returns the options described by RUNLOG_COLLECT_TYPES,
// RUNLOG_WAIT_MS and the file named by RUNLOG_CONFIG.
func FromEnv() ([]Option, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Collect.WaitMS < 0 {
		return nil, fmt.Errorf("runlog: wait_ms %d must not be negative", cfg.Collect.WaitMS)
	}
	opts := []Option{WithWait(cfg.Collect.Wait())}
	if len(cfg.Collect.Types) > 0 {
		opts = append(opts, WithCollectTypes(cfg.Collect.Types...))
	}
	return opts, nil
}
