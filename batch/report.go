package batch

import (
	"fmt"
	"time"
)

// Result is the outcome of one input.
type Result struct {
	Input   string
	Outputs []string
	// Skipped lists responsive breakpoints wider than the source.
	Skipped []int
	Err     error
	Elapsed time.Duration
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Report collects results in input order.
type Report struct {
	Results []Result
}

func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

func (r *Report) Succeeded() int {
	return len(r.Results) - r.Failed()
}

// Outputs returns every file written, in input order.
func (r *Report) Outputs() []string {
	var out []string
	for _, res := range r.Results {
		out = append(out, res.Outputs...)
	}
	return out
}

// Err summarises the failures, or returns nil when every input succeeded.
func (r *Report) Err() error {
	if failed := r.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(r.Results))
	}
	return nil
}
