package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crimson-sun/runlog/internal/model"
)

func TestFormatEntry(t *testing.T) {
	got := FormatEntry(model.LogEntry{
		Type:     model.TypeCommand,
		Message:  "visit\t/commands/network-requests",
		Severity: model.SeveritySuccess,
	})
	assert.Equal(t, "      cy:command ✔  visit\t/commands/network-requests", got)
}

func TestFormatEntryMultiline(t *testing.T) {
	got := FormatEntry(model.LogEntry{
		Type:     model.TypeXHR,
		Message:  "(putComment) STUBBED PUT https://example.com/comments/1\nStatus: 404",
		Severity: model.SeverityWarning,
	})
	assert.Equal(t, "          cy:xhr ❖  (putComment) STUBBED PUT https://example.com/comments/1\n"+Padding+"Status: 404", got)
}

func TestFormatEntryWithTime(t *testing.T) {
	got := FormatEntry(model.LogEntry{Type: model.TypeConsLog, Message: "hi", TimeString: "12:00:01"})
	assert.Equal(t, Padding+"Time: 12:00:01\n        cons:log ✱  hi", got)
}

func TestEntryIcon(t *testing.T) {
	tests := []struct {
		entry model.LogEntry
		want  string
	}{
		{model.LogEntry{Type: model.TypeConsWarn}, IconWarning},
		{model.LogEntry{Type: model.TypeConsError}, IconError},
		{model.LogEntry{Type: model.TypeConsDebug}, IconDebug},
		{model.LogEntry{Type: model.TypeConsInfo}, IconInfo},
		{model.LogEntry{Type: model.TypeIntercept}, IconRoute},
		{model.LogEntry{Type: model.TypeXHR, Severity: model.SeveritySuccess}, IconRoute},
		{model.LogEntry{Type: model.TypeXHR, Severity: model.SeverityWarning}, IconWarning},
		{model.LogEntry{Type: model.TypeCommand, Severity: model.SeverityError}, IconError},
		{model.LogEntry{Type: model.TypeRequest, Severity: model.SeveritySuccess}, IconSuccess},
		{model.LogEntry{Type: "custom"}, IconInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntryIcon(tt.entry), "type=%s severity=%s", tt.entry.Type, tt.entry.Severity)
	}
}

func TestPolicyAllows(t *testing.T) {
	failed := model.Envelope{State: model.StateFailed}
	passed := model.Envelope{State: model.StatePassed}
	passedHook := model.Envelope{State: model.StatePassed, IsHook: true}
	continuous := model.Envelope{Continuous: true}

	assert.True(t, PolicyOnFail.Allows(failed, false))
	assert.False(t, PolicyOnFail.Allows(passed, false))
	assert.True(t, PolicyOnFail.Allows(continuous, false))

	assert.True(t, PolicyAlways.Allows(passed, false))
	assert.False(t, PolicyAlways.Allows(passedHook, false))
	assert.True(t, PolicyAlways.Allows(passedHook, true))

	assert.False(t, PolicyNever.Allows(failed, true))
	assert.False(t, PolicyNever.Allows(continuous, true))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("", PolicyAlways)
	assert.NoError(t, err)
	assert.Equal(t, PolicyAlways, p)

	p, err = ParsePolicy("never", PolicyAlways)
	assert.NoError(t, err)
	assert.Equal(t, PolicyNever, p)

	_, err = ParsePolicy("sometimes", PolicyAlways)
	assert.Error(t, err)
}
