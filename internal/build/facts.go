package build

import (
	"time"
)

// Facts are the modification times deciding whether a unit needs
// regenerating. A zero time means the file does not exist.
type Facts struct {
	Primary  time.Time
	Logic    time.Time
	Partials []time.Time
	Artifact time.Time

	// Untracked is set when no previous run recorded the unit's sources, so
	// its partials are unknown.
	Untracked bool
	// Missing is set when a source recorded by the previous run is gone.
	Missing bool
	// Recorded is set when every source still has the modification time
	// the previous run recorded for it.
	Recorded bool
}

// Stale reports whether the artifact is absent or strictly older than any
// of the unit's sources. Sources whose times match the previous run's
// record were already converted, so an older artifact is then fresh: it
// was left untouched because its bytes did not change.
func (f Facts) Stale() bool {
	if f.Artifact.IsZero() || f.Untracked || f.Missing {
		return true
	}
	if f.Recorded {
		return false
	}
	if f.Artifact.Before(f.Primary) || f.Artifact.Before(f.Logic) {
		return true
	}
	for _, t := range f.Partials {
		if f.Artifact.Before(t) {
			return true
		}
	}
	return false
}
