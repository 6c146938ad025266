package output

import (
	"strings"

	"github.com/crimson-sun/runlog/internal/model"
)

// Column layout shared by the console and text file renderers.
const (
	TypeWidth = 16
	Padding   = "                    " // TypeWidth + len(" x  ")
)

// Icons used in front of entry messages.
const (
	IconError   = "✘"
	IconWarning = "❖"
	IconSuccess = "✔"
	IconInfo    = "✱"
	IconDebug   = "⚈"
	IconRoute   = "⛗"
)

// EntryIcon picks the icon for an entry from its type and severity.
func EntryIcon(e model.LogEntry) string {
	switch e.Type {
	case model.TypeConsWarn:
		return IconWarning
	case model.TypeConsError:
		return IconError
	case model.TypeConsDebug:
		return IconDebug
	case model.TypeConsLog, model.TypeConsInfo, model.TypeLog, model.TypePluginLog:
		return IconInfo
	case model.TypeRoute, model.TypeIntercept:
		return IconRoute
	case model.TypeXHR, model.TypeFetch:
		if e.Severity == model.SeveritySuccess {
			return IconRoute
		}
	}
	switch e.Severity {
	case model.SeverityError:
		return IconError
	case model.SeverityWarning:
		return IconWarning
	case model.SeveritySuccess:
		return IconSuccess
	}
	return IconInfo
}

// PadType right-aligns an entry type in the type column.
func PadType(t string) string {
	if len(t) >= TypeWidth {
		return t
	}
	return strings.Repeat(" ", TypeWidth-len(t)) + t
}

// IndentMessage pads continuation lines so they line up under the first one.
func IndentMessage(msg string) string {
	return strings.ReplaceAll(msg, "\n", "\n"+Padding)
}

// FormatEntry renders one entry as plain text without colour.
func FormatEntry(e model.LogEntry) string {
	var b strings.Builder
	if e.TimeString != "" {
		b.WriteString(Padding)
		b.WriteString("Time: ")
		b.WriteString(e.TimeString)
		b.WriteByte('\n')
	}
	b.WriteString(PadType(e.Type))
	b.WriteByte(' ')
	b.WriteString(EntryIcon(e))
	b.WriteString("  ")
	b.WriteString(IndentMessage(e.Message))
	return b.String()
}

// StateIcon is the marker printed next to a test title.
func StateIcon(s model.State) string {
	switch s {
	case model.StatePassed:
		return IconSuccess
	case model.StateFailed:
		return IconError
	case model.StatePending:
		return IconWarning
	}
	return IconInfo
}
