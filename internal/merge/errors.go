package merge

import "github.com/rotisserie/eris"

// Sentinel errors for the merge pipeline. Callers classify with eris.Is.
var (
	// ErrInvalidGeometry marks a malformed input geometry. It is surfaced
	// before the merge loop starts: a corrupt input cannot be safely unioned.
	ErrInvalidGeometry = eris.New("merge: invalid input geometry")

	// ErrGeometryUnion marks an empty or unrepairable geometry after a
	// union. It aborts the run; a silently wrong region is never produced.
	ErrGeometryUnion = eris.New("merge: geometry union produced invalid result")

	// ErrNoCandidate is returned by neighbor selection when no other region
	// exists to merge with.
	ErrNoCandidate = eris.New("merge: no candidate region available")
)
