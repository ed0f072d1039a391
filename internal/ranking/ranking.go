// Package ranking maps raw game scores onto a single sortable ranking key.
//
// Every game declares a Method. The method decides how a raw score is
// transformed into a ranking score and whether larger or smaller ranking
// scores rank first. The write path (rank and record computation) and the
// read path (leaderboard ordering) both ask this package for the direction,
// so the two can never disagree.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
)

// Method names a ranking method. Values outside the known set are kept
// verbatim and behave as the unknown variant (raw score, descending).
type Method string

// Known ranking methods.
const (
	HigherIsBetter     Method = "higher_is_better"
	LowerIsBetter      Method = "lower_is_better"
	ClosestToZero      Method = "closest_to_zero"
	FarthestFromZero   Method = "farthest_from_zero"
	ClosestToTarget    Method = "closest_to_target"
	FarthestFromTarget Method = "farthest_from_target"
	HighestPercentage  Method = "highest_percentage"
	LowestPercentage   Method = "lowest_percentage"
	PositiveOnlyHigher Method = "positive_only_higher"
	PositiveOnlyLower  Method = "positive_only_lower"
)

type transform int

const (
	identity transform = iota
	absolute
	distanceToTarget
)

type constraint int

const (
	unconstrained constraint = iota
	percentageRange
	strictlyPositive
)

type behavior struct {
	transform  transform
	descending bool
	constraint constraint
}

var behaviors = map[Method]behavior{
	HigherIsBetter:     {transform: identity, descending: true},
	LowerIsBetter:      {transform: identity, descending: false},
	ClosestToZero:      {transform: absolute, descending: false},
	FarthestFromZero:   {transform: absolute, descending: true},
	ClosestToTarget:    {transform: distanceToTarget, descending: false},
	FarthestFromTarget: {transform: distanceToTarget, descending: true},
	HighestPercentage:  {transform: identity, descending: true, constraint: percentageRange},
	LowestPercentage:   {transform: identity, descending: false, constraint: percentageRange},
	PositiveOnlyHigher: {transform: identity, descending: true, constraint: strictlyPositive},
	PositiveOnlyLower:  {transform: identity, descending: false, constraint: strictlyPositive},
}

// unknown methods degrade to a plain descending ranking of the raw score.
var unknownBehavior = behavior{transform: identity, descending: true}

func (m Method) behavior() behavior {
	if b, ok := behaviors[m]; ok {
		return b
	}
	return unknownBehavior
}

// Known reports whether m is one of the named ranking methods.
func (m Method) Known() bool {
	_, ok := behaviors[m]
	return ok
}

// RequiresTarget reports whether m measures distance to a target value.
func (m Method) RequiresTarget() bool {
	return m.behavior().transform == distanceToTarget
}

func (m Method) String() string {
	return string(m)
}

// Parse normalizes a method name. An empty name selects HigherIsBetter;
// unrecognized names are preserved and rank as the unknown variant.
func Parse(name string) Method {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return HigherIsBetter
	}
	return Method(name)
}

// Methods returns the known ranking methods in name order.
func Methods() []Method {
	out := make([]Method, 0, len(behaviors))
	for m := range behaviors {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Compute returns the ranking score for raw under method m. Target methods
// fail with ErrInvalidInput when target is nil. The function is pure.
func Compute(raw float64, m Method, target *float64) (float64, error) {
	switch m.behavior().transform {
	case absolute:
		return math.Abs(raw), nil
	case distanceToTarget:
		if target == nil {
			return 0, fmt.Errorf("%w: target value required for %s", apperrors.ErrInvalidInput, m)
		}
		return math.Abs(raw - *target), nil
	default:
		return raw, nil
	}
}

// IsDescendingBetter reports whether larger ranking scores rank first under m.
func IsDescendingBetter(m Method) bool {
	return m.behavior().descending
}

// Validate checks the preconditions m places on a raw score and target.
func Validate(raw float64, m Method, target *float64) error {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return fmt.Errorf("%w: score must be a finite number", apperrors.ErrInvalidInput)
	}

	b := m.behavior()
	if b.transform == distanceToTarget {
		if target == nil {
			return fmt.Errorf("%w: target value required for %s", apperrors.ErrInvalidInput, m)
		}
		if math.IsNaN(*target) || math.IsInf(*target, 0) {
			return fmt.Errorf("%w: target value must be a finite number", apperrors.ErrInvalidInput)
		}
	}

	switch b.constraint {
	case percentageRange:
		if raw < 0 || raw > 100 {
			return fmt.Errorf("%w: percentage must be between 0 and 100, got %v", apperrors.ErrInvalidInput, raw)
		}
	case strictlyPositive:
		if raw <= 0 {
			return fmt.Errorf("%w: score must be positive, got %v", apperrors.ErrInvalidInput, raw)
		}
	}

	return nil
}

// Better reports whether ranking score a strictly beats b in the given direction.
func Better(a, b float64, descending bool) bool {
	if descending {
		return a > b
	}
	return a < b
}

// WorstSentinel is the value every real ranking score beats: -Inf when
// higher ranks first, +Inf otherwise.
func WorstSentinel(descending bool) float64 {
	if descending {
		return math.Inf(-1)
	}
	return math.Inf(1)
}
