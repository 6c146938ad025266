package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crimson-sun/runlog/internal/model"
)

func TestResolveSpecFile(t *testing.T) {
	root := &model.Suite{}

	tests := []struct {
		name string
		r    *model.Runnable
		want string
	}{
		{
			name: "parent file without invocation details",
			r: &model.Runnable{
				Title:  "t",
				Parent: &model.Suite{Title: "s", File: "a.spec.js", Parent: root},
			},
			want: "a.spec.js",
		},
		{
			name: "no parent and no details",
			r:    &model.Runnable{Title: "t"},
			want: "",
		},
		{
			name: "parent without file",
			r:    &model.Runnable{Title: "t", Parent: &model.Suite{Title: "s"}},
			want: "",
		},
		{
			name: "own details only",
			r: &model.Runnable{
				Title:             "t",
				InvocationDetails: &model.InvocationDetails{RelativeFile: "cypress/e2e/own.cy.js"},
				Parent:            &model.Suite{Title: "s"},
			},
			want: "cypress/e2e/own.cy.js",
		},
		{
			name: "nested details resolve to the top-most",
			r: &model.Runnable{
				Title:             "t",
				InvocationDetails: &model.InvocationDetails{RelativeFile: "cypress/support/helper.js"},
				Parent: &model.Suite{
					Title:             "inner",
					InvocationDetails: &model.InvocationDetails{RelativeFile: "cypress/support/commands.js"},
					Parent: &model.Suite{
						Title:             "outer",
						InvocationDetails: &model.InvocationDetails{RelativeFile: "cypress/e2e/top.cy.js"},
						Parent:            root,
					},
				},
			},
			want: "cypress/e2e/top.cy.js",
		},
		{
			name: "halting ancestor file wins",
			r: &model.Runnable{
				Title:             "t",
				InvocationDetails: &model.InvocationDetails{RelativeFile: "helper.js"},
				Parent: &model.Suite{
					Title:             "s",
					InvocationDetails: &model.InvocationDetails{RelativeFile: "nested.js"},
					Parent:            &model.Suite{File: "grep.cy.js"},
				},
			},
			want: "grep.cy.js",
		},
		{
			name: "file url with query prefix",
			r: &model.Runnable{
				Title: "t",
				InvocationDetails: &model.InvocationDetails{
					FileURL: "http://localhost:8080/__cypress/tests?p=cypress/e2e/url.cy.js",
				},
			},
			want: "cypress/e2e/url.cy.js",
		},
		{
			name: "file url without query kept",
			r: &model.Runnable{
				Title:             "t",
				InvocationDetails: &model.InvocationDetails{FileURL: "webpack:///./cypress/e2e/x.cy.js"},
			},
			want: "webpack:///./cypress/e2e/x.cy.js",
		},
		{
			name: "details with nothing usable",
			r: &model.Runnable{
				Title:             "t",
				InvocationDetails: &model.InvocationDetails{},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSpecFile(tt.r))
		})
	}
}

func TestStripFileURL(t *testing.T) {
	assert.Equal(t, "a/b.js", stripFileURL("http://h/x?p=a/b.js"))
	assert.Equal(t, "?p=a.js", stripFileURL("?p=a.js"))
	assert.Equal(t, "http://h/x?q=1?p=a.js", stripFileURL("http://h/x?q=1?p=a.js"))
	assert.Equal(t, "", stripFileURL(""))
}
