package types

import (
	"fmt"
	"strings"
)

type RuleKind uint8

const (
	Rule_LocalP RuleKind = iota
	Rule_SemiLocalP
	Rule_LocalPZero
)

var RuleNameMap = map[string]RuleKind{
	"localp":      Rule_LocalP,
	"semilocalp":  Rule_SemiLocalP,
	"semi-localp": Rule_SemiLocalP,
	"localp-zero": Rule_LocalPZero,
	"localp0":     Rule_LocalPZero,
}

var ruleNames = []string{"localp", "semi-localp", "localp-zero"}

func (r RuleKind) String() string {
	if int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("RuleKind(%d)", r)
}

func NewRuleKind(label string) (r RuleKind, err error) {
	var ok bool
	if r, ok = RuleNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = NewError(InvalidConfiguration, "NewRuleKind",
			fmt.Sprintf("unknown rule %q", label))
	}
	return
}

// RefinementType names a candidate generation strategy.
type RefinementType uint8

const (
	Refine_Classic RefinementType = iota
	Refine_ParentsFirst
	Refine_Direction
	Refine_FDS
)

var RefinementNameMap = map[string]RefinementType{
	"classic":       Refine_Classic,
	"iso":           Refine_Classic,
	"parents":       Refine_ParentsFirst,
	"parents-first": Refine_ParentsFirst,
	"direction":     Refine_Direction,
	"directional":   Refine_Direction,
	"fds":           Refine_FDS,
}

var refinementNames = []string{"classic", "parents-first", "direction", "fds"}

func (r RefinementType) String() string {
	if int(r) < len(refinementNames) {
		return refinementNames[r]
	}
	return fmt.Sprintf("RefinementType(%d)", r)
}

func NewRefinementType(label string) (r RefinementType, err error) {
	var ok bool
	if r, ok = RefinementNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = NewError(InvalidConfiguration, "NewRefinementType",
			fmt.Sprintf("unknown refinement rule %q", label))
	}
	return
}

// Criterion selects how the tolerance is compared against surpluses.
type Criterion uint8

const (
	Criterion_Absolute Criterion = iota
	Criterion_Relative
)

func (c Criterion) String() string {
	switch c {
	case Criterion_Absolute:
		return "absolute"
	case Criterion_Relative:
		return "relative"
	}
	return fmt.Sprintf("Criterion(%d)", c)
}

func NewCriterion(label string) (c Criterion, err error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "abs", "absolute":
		c = Criterion_Absolute
	case "rel", "relative":
		c = Criterion_Relative
	default:
		err = NewError(InvalidConfiguration, "NewCriterion",
			fmt.Sprintf("unknown criterion %q", label))
	}
	return
}
