package remote

import (
	"axis/internal/domain"
	"axis/internal/reputation"
)

// normalizeProfiles re-derives each profile's rank from its score on load.
// A stored rank that disagrees with the derivation is corrected here, at the
// single point every implementation funnels profile reads through.
func normalizeProfiles(profiles []domain.Profile) {
	for i := range profiles {
		reputation.Normalize(&profiles[i])
	}
}
