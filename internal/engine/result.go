package engine

import (
	"fmt"
	"strings"
)

// Result is the outcome of a sync run, shaped for direct JSON rendering.
// Bucket slices are always non-nil so the JSON carries [] instead of null.
type Result struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Details  Details  `json:"details"`
	Warnings []string `json:"warnings,omitempty"`
}

// Details buckets per-spec outcomes by what happened to each document.
type Details struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped"`
	Errors  []string `json:"errors"`
}

func newResult() *Result {
	return &Result{
		Success: true,
		Details: Details{
			Created: []string{},
			Updated: []string{},
			Skipped: []string{},
			Errors:  []string{},
		},
	}
}

func (r *Result) created(name string) { r.Details.Created = append(r.Details.Created, name) }
func (r *Result) updated(name string) { r.Details.Updated = append(r.Details.Updated, name) }
func (r *Result) skipped(name string) { r.Details.Skipped = append(r.Details.Skipped, name) }

// fail records a per-spec error and marks the whole run unsuccessful.
func (r *Result) fail(name string, err error) {
	r.Success = false
	r.Details.Errors = append(r.Details.Errors, fmt.Sprintf("%s: %v", name, err))
}

// warn appends non-fatal findings, typically writeback failures.
func (r *Result) warn(warnings ...string) {
	r.Warnings = append(r.Warnings, warnings...)
}

// summarize renders the human message from the bucket counts.
func (r *Result) summarize(dryRun bool) {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(r.Details.Created), "created")
	add(len(r.Details.Updated), "updated")
	add(len(r.Details.Skipped), "skipped")
	add(len(r.Details.Errors), "failed")

	switch {
	case len(parts) == 0:
		r.Message = "nothing to sync"
	case dryRun:
		r.Message = "dry run: " + strings.Join(parts, ", ")
	case r.Success:
		r.Message = "sync complete: " + strings.Join(parts, ", ")
	default:
		r.Message = "sync finished with errors: " + strings.Join(parts, ", ")
	}
}
