// Package resolver decides whether an incoming acquisition duplicates a
// tracked file record.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dupeguard/internal/logging"
	"dupeguard/internal/records"
	"dupeguard/internal/similarity"
)

// Basis names the evidence tier a match was decided on.
type Basis string

const (
	BasisNone        Basis = ""
	BasisFingerprint Basis = "fingerprint"
	BasisNameSize    Basis = "name_size"
	BasisSimilarName Basis = "similar_name"
)

// sizeToleranceFloor is the minimum absolute size slack in bytes. Small files
// would otherwise never clear the fractional tolerance.
const sizeToleranceFloor = 1024

// Candidate describes an incoming acquisition to check against the collection.
type Candidate struct {
	Name        string
	Size        int64
	Fingerprint string
}

// Verdict is the resolver's answer. Record is nil when Matched is false.
type Verdict struct {
	Matched bool
	Basis   Basis
	Record  *records.FileRecord
	Score   float64
}

// Resolver applies the tiered duplicate policy against a record store.
//
// Tiers are strict: fingerprint equality outranks name-plus-size, which
// outranks fuzzy name similarity. A lower tier is consulted only when every
// record failed the tier above it.
type Resolver struct {
	store     records.Store
	threshold float64
	logger    *slog.Logger
}

// New constructs a resolver. threshold is the fuzzy-name score a record must
// reach to count as a duplicate; values outside (0, 1] fall back to 0.8.
func New(store records.Store, threshold float64, logger *slog.Logger) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	return &Resolver{
		store:     store,
		threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve checks the candidate against every tracked record and returns the
// strongest match found. The store read is a point-in-time snapshot; records
// registered afterwards are not considered.
func (r *Resolver) Resolve(ctx context.Context, candidate Candidate) (Verdict, error) {
	list, err := r.store.List(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("list records: %w", err)
	}

	if fp := strings.TrimSpace(candidate.Fingerprint); fp != "" {
		for i := range list {
			if list[i].Fingerprint != "" && list[i].Fingerprint == fp {
				return r.matched(candidate, Verdict{Matched: true, Basis: BasisFingerprint, Record: &list[i]}), nil
			}
		}
	}

	normalized := similarity.Normalize(candidate.Name)
	if normalized == "" {
		return Verdict{}, nil
	}

	for i := range list {
		if list[i].Normalized() == normalized && sizeWithinTolerance(candidate.Size, list[i].Size) {
			return r.matched(candidate, Verdict{Matched: true, Basis: BasisNameSize, Record: &list[i]}), nil
		}
	}

	// First record past the threshold wins, in registration order.
	for i := range list {
		score := similarity.Score(normalized, list[i].Normalized())
		if score >= r.threshold {
			return r.matched(candidate, Verdict{Matched: true, Basis: BasisSimilarName, Record: &list[i], Score: score}), nil
		}
	}

	return Verdict{}, nil
}

func (r *Resolver) matched(candidate Candidate, verdict Verdict) Verdict {
	attrs := []logging.Attr{
		logging.String("candidate_name", candidate.Name),
		logging.String("basis", string(verdict.Basis)),
		logging.String(logging.FieldRecordID, verdict.Record.ID),
		logging.String(logging.FieldEventType, "duplicate_matched"),
	}
	if verdict.Basis == BasisSimilarName {
		attrs = append(attrs, logging.Float64("score", verdict.Score))
	}
	r.logger.Info("duplicate detected", logging.Args(attrs...)...)
	return verdict
}

// sizeWithinTolerance reports whether two sizes are close enough to treat
// equally named files as the same content. The slack is one tenth of the
// smaller size, never less than sizeToleranceFloor bytes. An unknown size
// compares equal: name equality alone then carries the match.
func sizeWithinTolerance(a, b int64) bool {
	if a <= 0 || b <= 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	minSize := a
	if b < minSize {
		minSize = b
	}
	tolerance := 0.1 * float64(minSize)
	if tolerance < sizeToleranceFloor {
		tolerance = sizeToleranceFloor
	}
	return float64(diff) <= tolerance
}
