package model

// Envelope is the message describing one test's outcome and its logs.
// FileMessages and TerminalMessages come from the same stack but are
// filtered and mapped independently, so they may differ.
type Envelope struct {
	Spec             string     `json:"spec"`
	Test             string     `json:"test"`
	FileMessages     []LogEntry `json:"fileMessages"`
	TerminalMessages []LogEntry `json:"terminalMessages"`
	State            State      `json:"state,omitempty"`
	Level            int        `json:"level"`
	ConsoleTitle     string     `json:"consoleTitle,omitempty"`
	IsHook           bool       `json:"isHook,omitempty"`
	Continuous       bool       `json:"continuous,omitempty"`
}
