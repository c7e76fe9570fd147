package invoice

import (
	"santiye/internal/core"
)

// AllocationRule is the strategy interface for distributing a line total
// between the two parties.
type AllocationRule interface {
	// Allocate returns the part of lineTotal borne by party A and by party B.
	Allocate(lineTotal float64, split core.SharedSplit) (partyA, partyB float64)
}

// PartyARule charges the whole line to party A.
type PartyARule struct{}

func (PartyARule) Allocate(lineTotal float64, _ core.SharedSplit) (float64, float64) {
	return lineTotal, 0
}

// PartyBRule charges the whole line to party B.
type PartyBRule struct{}

func (PartyBRule) Allocate(lineTotal float64, _ core.SharedSplit) (float64, float64) {
	return 0, lineTotal
}

// SharedRule splits the line by the configured ratios.
type SharedRule struct{}

func (SharedRule) Allocate(lineTotal float64, split core.SharedSplit) (float64, float64) {
	return lineTotal * split.PartyA, lineTotal * split.PartyB
}

var allocationRules = map[core.Allocation]AllocationRule{
	core.PartyA: PartyARule{},
	core.PartyB: PartyBRule{},
	core.Shared: SharedRule{},
}

// RuleFor returns the rule registered for an allocation tag.
func RuleFor(a core.Allocation) (AllocationRule, bool) {
	rule, ok := allocationRules[a]
	return rule, ok
}
