package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/runlog/internal/model"
	"github.com/crimson-sun/runlog/internal/output"
)

// WriteError reports which outputs failed a Write. Delivered counts the
// outputs that accepted the envelope; retrying the whole Multi would write
// it to them again.
type WriteError struct {
	Delivered int
	Failed    int
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("multi: %d of %d outputs failed: %v", e.Failed, e.Delivered+e.Failed, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Partial reports whether at least one output accepted the envelope.
func (e *WriteError) Partial() bool {
	return e.Delivered > 0
}

// Multi fans an envelope out to several outputs, e.g. console and spec files.
// A failing output does not stop delivery to the ones after it.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs in order.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers env to every wrapped output. Failures are returned as a
// *WriteError joining the individual errors.
func (m *Multi) Write(ctx context.Context, env model.Envelope) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &WriteError{
		Delivered: len(m.outputs) - len(errs),
		Failed:    len(errs),
		Err:       errors.Join(errs...),
	}
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
