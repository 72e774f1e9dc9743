package cycle

// DefaultGainThreshold is the minimum realized gain (percent) for a cycle to
// count as a success by magnitude.
const DefaultGainThreshold = 1.2

// StructurePolicy selects how success-by-structure is judged. Historical
// revisions of the tracker disagreed; both readings stay available.
type StructurePolicy int

const (
	// StructureStrict succeeds only when the cycle never hit a structural
	// exit at all: end reason nil or still_active.
	StructureStrict StructurePolicy = iota
	// StructureLenient succeeds whenever the end reason is not in the
	// failure set.
	StructureLenient
)

var failureReasons = map[string]bool{
	"rsi_weakening":   true,
	"price_drop_stop": true,
	"timeout":         true,
}

// Outcome holds independent classification flags. The flags are not mutually
// exclusive: a cycle can gain past the threshold and still have exited on a
// failure reason. Aggregation counts each flag on its own.
type Outcome struct {
	SuccessByGain      bool
	SuccessByStructure bool
	Failure            bool
}

// Indeterminate reports that no flag matched, e.g. an unrecognized end
// reason with no measured gain. This is an expected outcome, not a fault.
func (o Outcome) Indeterminate() bool {
	return !o.SuccessByGain && !o.SuccessByStructure && !o.Failure
}

// Classifier assigns outcome flags to closed cycles.
type Classifier struct {
	GainThreshold float64
	Structure     StructurePolicy
}

// NewClassifier returns a classifier with the default gain threshold and the
// strict structure policy.
func NewClassifier() Classifier {
	return Classifier{GainThreshold: DefaultGainThreshold, Structure: StructureStrict}
}

// Classify evaluates every flag for the given cycle.
func (c Classifier) Classify(cy Cycle) Outcome {
	var out Outcome
	if cy.GainPercent != nil && *cy.GainPercent >= c.GainThreshold {
		out.SuccessByGain = true
	}
	switch c.Structure {
	case StructureLenient:
		out.SuccessByStructure = cy.EndReason == nil || !failureReasons[*cy.EndReason]
	default:
		out.SuccessByStructure = cy.EndReason == nil || *cy.EndReason == ReasonStillActive
	}
	if cy.EndReason != nil && failureReasons[*cy.EndReason] {
		out.Failure = true
	}
	return out
}
