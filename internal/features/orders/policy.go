package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Policy decides what an aggregation does with a field that did not decode.
type Policy string

const (
	PolicySkip  Policy = "skip"  // leave the order out
	PolicyZero  Policy = "zero"  // count a bad number as 0
	PolicyAbort Policy = "abort" // stop the run
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyZero, PolicyAbort:
		return p, nil
	case "":
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown policy %q: want skip, zero or abort", s)
	}
}

// Outcome is what happened to one order under a policy.
type Outcome int

const (
	Used Outcome = iota
	Substituted
	Skipped
)

// ResolveValue applies p to measure m of o. Under abort the error is a
// *ParseError of kind field.
func (p Policy) ResolveValue(o Order, m Measure) (decimal.Decimal, Outcome, error) {
	v, fe := o.Value(m)
	if fe == nil {
		return v, Used, nil
	}
	switch p {
	case PolicyZero:
		return decimal.Zero, Substituted, nil
	case PolicyAbort:
		return decimal.Zero, Skipped, fieldAbort(fe)
	default:
		return decimal.Zero, Skipped, nil
	}
}

// ResolveDate applies p to the daily key of o. A missing or unparseable
// date has no sensible substitute, so zero behaves like skip here.
func (p Policy) ResolveDate(o Order) (string, Outcome, error) {
	key, fe := o.DateKey()
	if fe == nil {
		return key, Used, nil
	}
	if p == PolicyAbort {
		return "", Skipped, fieldAbort(fe)
	}
	return "", Skipped, nil
}

func fieldAbort(fe *FieldError) error {
	return &ParseError{Kind: ParseField, Line: fe.Line, Column: fe.Column, Err: fe}
}
