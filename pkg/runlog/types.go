package runlog

import (
	"github.com/crimson-sun/runlog/internal/collector"
	"github.com/crimson-sun/runlog/internal/model"
	"github.com/crimson-sun/runlog/internal/output"
)

// Public names for the collector's data types.
type (
	Entry             = model.LogEntry
	Envelope          = model.Envelope
	Runnable          = model.Runnable
	Suite             = model.Suite
	InvocationDetails = model.InvocationDetails
	TestData          = model.TestData
	State             = model.State
	SendOptions       = collector.SendOptions
	Output            = output.Output
)

// Test states reported by the runner.
const (
	StatePassed  = model.StatePassed
	StateFailed  = model.StateFailed
	StatePending = model.StatePending
)

// ErrNullLogStack is reported when a finished test had no log stack.
var ErrNullLogStack = collector.ErrNullLogStack
