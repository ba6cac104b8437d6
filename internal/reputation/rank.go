// Package reputation derives rank tiers from cumulative ATIS scores. It is
// pure so the derivation stays identical across grading, resync, and reload.
package reputation

import "axis/internal/domain"

// Grading bounds for a single manual grade.
const (
	GradeMin = 1
	GradeMax = 5
)

// GradeWeight converts a 1-5 grade into ATIS points.
const GradeWeight = 10

// DeriveRank maps a cumulative ATIS score to its rank tier.
func DeriveRank(score int) domain.Rank {
	switch {
	case score >= 500:
		return domain.RankGold
	case score >= 300:
		return domain.RankSilver
	case score >= 100:
		return domain.RankBronze
	default:
		return domain.RankIron
	}
}

// ApplyGrade returns the cumulative score and rank after a manual grade.
// Scores only ever increase through this path.
func ApplyGrade(current, grade int) (int, domain.Rank) {
	next := current + grade*GradeWeight
	return next, DeriveRank(next)
}

// ValidGrade reports whether grade is within the allowed 1-5 range.
func ValidGrade(grade int) bool {
	return grade >= GradeMin && grade <= GradeMax
}

// Normalize corrects a profile whose stored rank disagrees with the
// derivation. The stored value is treated as a cache, not as truth.
func Normalize(p *domain.Profile) {
	p.Rank = DeriveRank(p.ATISScore)
}
