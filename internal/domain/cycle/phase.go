package cycle

import "fmt"

// Phase is one stage of the fixed five-stage cycle lifecycle.
type Phase string

const (
	PhaseNomination Phase = "nomination"
	PhaseWatching   Phase = "watching"
	PhaseRanking    Phase = "ranking"
	PhaseResults    Phase = "results"
	PhaseIdle       Phase = "idle"
)

// phaseOrder is the total order used by Next/Previous stepping.
var phaseOrder = []Phase{
	PhaseNomination,
	PhaseWatching,
	PhaseRanking,
	PhaseResults,
	PhaseIdle,
}

func ParsePhase(v string) (Phase, error) {
	p := Phase(v)
	if _, ok := phaseOrdinal(p); !ok {
		return "", fmt.Errorf("unknown phase %q", v)
	}

	return p, nil
}

func (p Phase) String() string {
	return string(p)
}

func (p Phase) Valid() bool {
	_, ok := phaseOrdinal(p)
	return ok
}

// Terminal reports whether the cycle is completed.
func (p Phase) Terminal() bool {
	return p == PhaseIdle
}

// Next returns the following phase, clamped at idle.
func (p Phase) Next() Phase {
	idx, ok := phaseOrdinal(p)
	if !ok || idx == len(phaseOrder)-1 {
		return clampPhase(p)
	}

	return phaseOrder[idx+1]
}

// Previous returns the preceding phase, clamped at nomination.
func (p Phase) Previous() Phase {
	idx, ok := phaseOrdinal(p)
	if !ok || idx == 0 {
		return PhaseNomination
	}

	return phaseOrder[idx-1]
}

// Before reports whether p precedes other in the lifecycle order.
func (p Phase) Before(other Phase) bool {
	a, okA := phaseOrdinal(p)
	b, okB := phaseOrdinal(other)

	return okA && okB && a < b
}

func phaseOrdinal(p Phase) (int, bool) {
	for idx, candidate := range phaseOrder {
		if candidate == p {
			return idx, true
		}
	}

	return 0, false
}

func clampPhase(p Phase) Phase {
	if _, ok := phaseOrdinal(p); ok {
		return p
	}

	return PhaseNomination
}
