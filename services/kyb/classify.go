package kyb

import (
	"kyb-backend/lib/obsstore"
)

// observed is a freshly built set of directory snapshots that has not
// been tagged with a change category yet. The attempted flags record
// whether the builder ran the corresponding lookup at all; a failed
// lookup is still attempted, its snapshot just holds zero defaults.
type observed struct {
	Reviews obsstore.ReviewsSnapshot
	Maps    obsstore.MapsSnapshot
	Network obsstore.NetworkSnapshot

	ReviewsAttempted bool
	MapsAttempted    bool
	NetworkAttempted bool
}

// classify compares the current snapshots against the most recent
// stored observation and decides the change category.
//
// The decision order matters: review/rating movement wins over
// headcount movement, and "no meaningful change" reuses the new_entity
// tag, matching how every historical record was written.
func classify(prior *obsstore.Observation, cur observed) (obsstore.ChangeCategory, obsstore.GrowthDeltas) {
	if prior == nil {
		return obsstore.CategoryNewEntity, obsstore.GrowthDeltas{}
	}

	if cur.ReviewsAttempted && cur.MapsAttempted {
		oldYelp := prior.Reviews.ReviewCount
		newYelp := cur.Reviews.ReviewCount
		oldGoogle := prior.Maps.TotalRatings
		newGoogle := cur.Maps.TotalRatings

		if oldYelp != newYelp || oldGoogle != newGoogle {
			return obsstore.CategoryBusinessGrowth, obsstore.GrowthDeltas{
				OldYelpReviews:   &oldYelp,
				NewYelpReviews:   &newYelp,
				OldGoogleReviews: &oldGoogle,
				NewGoogleReviews: &newGoogle,
			}
		}
	}

	if cur.NetworkAttempted &&
		prior.Network.CompanySize != nil && cur.Network.CompanySize != nil &&
		*prior.Network.CompanySize != *cur.Network.CompanySize {
		oldSize := *prior.Network.CompanySize
		newSize := *cur.Network.CompanySize
		return obsstore.CategoryOrgGrowth, obsstore.GrowthDeltas{
			OldCompanySize: &oldSize,
			NewCompanySize: &newSize,
		}
	}

	return obsstore.CategoryNewEntity, obsstore.GrowthDeltas{}
}
