package model

import (
	"strings"

	"github.com/neurlang/rcnbatch/errors"
)

// Policy decides what aggregation does with failed samples
type Policy int

const (
	// PolicyFail aborts aggregation if any sample failed
	PolicyFail Policy = iota
	// PolicySkip drops failed samples, keeping original positions in Indices
	PolicySkip
	// PolicySubstitute replaces failed samples with sample 0, warning per index
	PolicySubstitute
)

var policyNames = [...]string{"fail", "skip", "substitute"}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return "unknown"
	}
	return policyNames[p]
}

// ParsePolicy parses a policy name
func ParsePolicy(s string) (Policy, error) {
	for i, name := range policyNames {
		if strings.EqualFold(s, name) {
			return Policy(i), nil
		}
	}
	return 0, errors.Input("unknown failure policy %q (want fail, skip or substitute)", s)
}
