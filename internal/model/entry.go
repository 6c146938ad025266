package model

// Severity of a captured log entry. Empty means neutral.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Well-known log entry types emitted by the capturing side.
const (
	TypeCommand   = "cy:command"
	TypeLog       = "cy:log"
	TypeXHR       = "cy:xhr"
	TypeFetch     = "cy:fetch"
	TypeRequest   = "cy:request"
	TypeIntercept = "cy:intercept"
	TypeRoute     = "cy:route"
	TypeConsLog   = "cons:log"
	TypeConsInfo  = "cons:info"
	TypeConsWarn  = "cons:warn"
	TypeConsError = "cons:error"
	TypeConsDebug = "cons:debug"
	TypePluginLog = "plugin:log"
)

// LogEntry is one captured event: a command, a network call or console output.
// The collector core passes entries through untouched; only user pipeline
// hooks and the renderers look inside.
type LogEntry struct {
	Type       string   `json:"type"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity,omitempty"`
	TimeString string   `json:"timeString,omitempty"`
}
