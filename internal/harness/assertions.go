package harness

import (
	"fmt"
	"strings"
	"time"
)

// ExpectationError is recorded when an expect step does not match.
type ExpectationError struct {
	Step     int           // index in Scenario.Steps
	At       time.Duration // fake time elapsed when the step ran
	Field    string        // checked field
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "steps[%d] at %s: expect %s\n", e.Step, elapsed(e.At), e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// observed is what an expect step is compared against.
type observed struct {
	status      string
	remainingMS int64
	display     string
	alerts      int
	playing     bool
	rejected    int
}

// checkExpect compares one expect step and returns every mismatch.
func checkExpect(index int, at time.Duration, e *Expect, got observed) []error {
	var errs []error
	mismatch := func(field string, want, have any) {
		errs = append(errs, &ExpectationError{
			Step:     index,
			At:       at,
			Field:    field,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", have),
		})
	}

	if e.Status != "" && e.Status != got.status {
		mismatch("status", e.Status, got.status)
	}
	if e.RemainingMS != nil && *e.RemainingMS != got.remainingMS {
		mismatch("remaining_ms", *e.RemainingMS, got.remainingMS)
	}
	if e.Display != nil && *e.Display != got.display {
		mismatch("display", fmt.Sprintf("%q", *e.Display), fmt.Sprintf("%q", got.display))
	}
	if e.Alerts != nil && *e.Alerts != got.alerts {
		mismatch("alerts", *e.Alerts, got.alerts)
	}
	if e.Playing != nil && *e.Playing != got.playing {
		mismatch("playing", *e.Playing, got.playing)
	}
	if e.Rejected != nil && *e.Rejected != got.rejected {
		mismatch("rejected", *e.Rejected, got.rejected)
	}
	return errs
}
