package recur

import (
	"time"

	"github.com/cyp0633/librecur/internal/tz"
)

// FoldPolicy decides what a fold (a wall clock occurring twice) resolves to.
type FoldPolicy int

const (
	// FoldError refuses ambiguous wall clocks with AmbiguousTimeError.
	FoldError FoldPolicy = iota
	// FoldEarlier picks the occurrence before the clock change.
	FoldEarlier
	// FoldLater picks the occurrence after the clock change.
	FoldLater
)

// GapPolicy decides what a gap (a wall clock that was skipped) resolves to.
type GapPolicy int

const (
	// GapError refuses skipped wall clocks with InvalidTimeError.
	GapError GapPolicy = iota
	// GapSkip silently drops the candidate from the result.
	GapSkip
	// GapShift reads the wall clock with the pre-transition offset, yielding
	// the instant just after the transition at a shifted wall clock.
	GapShift
)

// AmbiguityPolicy configures fold and gap resolution for one evaluation. The
// zero value refuses both cases, so a caller must opt in explicitly before
// the engine picks an instant they did not ask for.
type AmbiguityPolicy struct {
	Fold FoldPolicy
	Gap  GapPolicy
}

// DefaultPolicy errors on both folds and gaps.
var DefaultPolicy = AmbiguityPolicy{Fold: FoldError, Gap: GapError}

// resolveCivil maps a wall clock (UTC-carried) to an instant in loc under the
// policy. The boolean reports that the candidate must be dropped (GapSkip).
// A nil loc means a floating time, which is read as UTC.
func resolveCivil(civil time.Time, loc *time.Location, policy AmbiguityPolicy) (time.Time, bool, error) {
	res := tz.Classify(civil, loc)
	switch res.Kind {
	case tz.Unique:
		return res.Earlier, false, nil
	case tz.Fold:
		switch policy.Fold {
		case FoldEarlier:
			return res.Earlier, false, nil
		case FoldLater:
			return res.Later, false, nil
		default:
			return time.Time{}, false, &AmbiguousTimeError{
				Civil:   civil,
				Zone:    loc.String(),
				Earlier: res.Earlier,
				Later:   res.Later,
			}
		}
	default: // tz.Gap
		switch policy.Gap {
		case GapSkip:
			return time.Time{}, true, nil
		case GapShift:
			return res.Shifted, false, nil
		default:
			return time.Time{}, false, &InvalidTimeError{Civil: civil, Zone: loc.String()}
		}
	}
}
