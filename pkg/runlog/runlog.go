package runlog

import (
	"context"

	"github.com/crimson-sun/runlog/internal/collector"
	"github.com/crimson-sun/runlog/internal/logging"
	"github.com/crimson-sun/runlog/internal/sender"
	"github.com/crimson-sun/runlog/internal/transport/httpsend"
)

// Collector buffers log entries per stack index and ships one envelope per
// finished test to its output, in the order tests finish.
type Collector struct {
	store *collector.Store
	queue *sender.Queue
	ctrl  *collector.Controller
	opts  options
}

// New creates a Collector delivering to out. Close releases out.
func New(out Output, opts ...Option) *Collector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.WithComponent("runlog")
	}

	var qopts []sender.Option
	if o.bufferSize > 0 {
		qopts = append(qopts, sender.WithBufferSize(o.bufferSize))
	}
	if o.onError != nil {
		qopts = append(qopts, sender.WithOnError(o.onError))
	}

	pipeline := o.pipeline
	pipeline.FilterLog = o.filter()

	store := collector.NewStore()
	queue := sender.New(out, qopts...)
	return &Collector{
		store: store,
		queue: queue,
		ctrl:  collector.NewController(store, queue, pipeline, o.logger),
		opts:  o,
	}
}

// NewHTTPOutput returns an Output that posts envelopes to a runlog
// collector listening at baseURL.
func NewHTTPOutput(baseURL string) Output {
	return httpsend.New(baseURL)
}

// TestStarted opens an empty stack at index. Call it when a test begins so a
// test that logs nothing still produces an envelope when it finishes.
func (c *Collector) TestStarted(index int) {
	c.store.Start(index)
}

// Log appends e to the stack at index.
func (c *Collector) Log(index int, e Entry) {
	c.store.Append(index, e)
}

// Pending reports how many entries wait at index.
func (c *Collector) Pending(index int) int {
	return c.store.Len(index)
}

// TestFinished submits the logs at index for the finished test or hook r.
// Tests whose spec file cannot be resolved are ignored.
func (c *Collector) TestFinished(index int, r *Runnable, opts SendOptions) error {
	if opts.Wait == nil {
		wait := c.opts.wait
		opts.Wait = &wait
	}
	return c.ctrl.SendLogsToPrinter(index, r, opts)
}

// Flush waits until every queued envelope has been delivered.
func (c *Collector) Flush(ctx context.Context) error {
	return c.queue.Flush(ctx)
}

// Close delivers what is queued and closes the output.
func (c *Collector) Close() error {
	return c.queue.Close()
}
