package collector

import (
	"strings"

	"github.com/crimson-sun/runlog/internal/model"
)

// ResolveSpecFile returns the spec file that owns r, or "" if none can be found.
//
// Tests declared through helpers or custom commands report the helper's
// definition site, so the walk climbs through every ancestor carrying
// invocation details and answers with the top-most one.
func ResolveSpecFile(r *model.Runnable) string {
	parent := r.Parent
	if r.InvocationDetails == nil && (parent == nil || parent.InvocationDetails == nil) {
		if parent == nil {
			return ""
		}
		return parent.File
	}

	details := r.InvocationDetails
	for parent != nil && parent.InvocationDetails != nil {
		details = parent.InvocationDetails
		parent = parent.Parent
	}

	// A declared file on the halting suite wins; grep-style plugins set it.
	if parent != nil && parent.File != "" {
		return parent.File
	}
	if details.RelativeFile != "" {
		return details.RelativeFile
	}
	return stripFileURL(details.FileURL)
}

// stripFileURL drops a leading "<url>?p=" so only the path remains. The
// query must be the first one in the URL; anything else is returned unchanged.
func stripFileURL(u string) string {
	q := strings.IndexByte(u, '?')
	if q <= 0 || !strings.HasPrefix(u[q+1:], "p=") {
		return u
	}
	return u[q+len("?p="):]
}
