package model

// State is the outcome reported by the test runner for a test or hook.
// Values outside the named constants are passed through as-is.
type State string

const (
	StatePassed  State = "passed"
	StateFailed  State = "failed"
	StatePending State = "pending"
)

// InvocationDetails records where a test body was defined.
type InvocationDetails struct {
	RelativeFile string `json:"relativeFile,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"` // may carry a "...?p=<path>" query
}

// Suite is a node in the runner's suite tree. The root suite has no title.
type Suite struct {
	Title             string
	File              string
	InvocationDetails *InvocationDetails
	Parent            *Suite
}

// Runnable is a test or hook as seen by the runner at completion time.
type Runnable struct {
	Title             string
	State             State
	Parent            *Suite
	InvocationDetails *InvocationDetails

	CurrentRetry int // 0-based attempt counter
	Retries      int // configured retries; 0 disables attempt suffixes
}

// TestData is the resolved identity of a finished test, handed to
// test-log collection hooks.
type TestData struct {
	Runnable *Runnable
	State    State
	Title    string
	Level    int
}
