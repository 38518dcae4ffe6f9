package feed

import (
	"time"

	"campusmatch/backend/internal/models"
)

// Relations carries the id-based lookups the filter needs about the viewer.
// Built once per feed request by LoadRelations; the filter itself stays a
// pure computation.
type Relations struct {
	BlockedByViewer map[uint]bool // profiles the viewer has blocked
	BlockedViewer   map[uint]bool // profiles that have blocked the viewer
	LikedProfiles   map[uint]bool // profiles the viewer has already liked
	LikedGroups     map[uint]bool // groups the viewer has already liked
	ViewerGroupID   uint          // 0 when the viewer is standalone
}

// MinGroupSize is the member floor for a group to appear in any feed.
// A group of one is pending member recruitment, not an error.
const MinGroupSize = 2

// AgeBand returns the inclusive candidate age range for a viewer of the
// given age. Viewers aged 18 or 19 see [age-1, age+6]; everyone else
// sees [age-5, age+5].
func AgeBand(viewerAge int) (int, int) {
	if viewerAge == 18 || viewerAge == 19 {
		return viewerAge - 1, viewerAge + 6
	}
	return viewerAge - 5, viewerAge + 5
}

// Filter produces the subset of an already-geography-narrowed candidate pool
// the viewer is allowed to see.
//
// Candidate profiles currently in a group are excluded: groups surface
// separately, a profile is never shown both ways. Group candidates must have
// their Members loaded for the member-block exclusion.
//
// Callers must reject viewers without a resolved age or location upstream;
// the filter assumes both are present.
func Filter(viewer *models.Profile, profiles []models.Profile, groups []models.Group, rel Relations, now time.Time) ([]models.Profile, []models.Group) {
	viewerAge := viewer.Age(now)
	minAge, maxAge := AgeBand(viewerAge)

	var outProfiles []models.Profile
	for _, p := range profiles {
		if p.ID == viewer.ID {
			continue
		}
		if p.CurrentGroupID != nil {
			continue
		}
		if !genderWanted(viewer.ShowMe, p.Gender) {
			continue
		}
		if rel.BlockedByViewer[p.ID] || rel.BlockedViewer[p.ID] {
			continue
		}
		if age := p.Age(now); age < minAge || age > maxAge {
			continue
		}
		if rel.LikedProfiles[p.ID] {
			continue
		}
		outProfiles = append(outProfiles, p)
	}

	var outGroups []models.Group
	for _, g := range groups {
		if rel.ViewerGroupID != 0 && g.ID == rel.ViewerGroupID {
			continue
		}
		if !genderWanted(viewer.ShowMe, g.Gender) {
			continue
		}
		if groupHasBlockRelation(&g, rel) {
			continue
		}
		if g.Age < minAge || g.Age > maxAge {
			continue
		}
		if rel.LikedGroups[g.ID] {
			continue
		}
		if g.TotalMembers < MinGroupSize {
			continue
		}
		outGroups = append(outGroups, g)
	}

	return outProfiles, outGroups
}

func genderWanted(pref models.ShowMe, gender models.Gender) bool {
	switch pref {
	case models.ShowMeAny:
		return true
	case models.ShowMeMale:
		return gender == models.GenderMale
	case models.ShowMeFemale:
		return gender == models.GenderFemale
	default:
		return false
	}
}

// groupHasBlockRelation reports whether any group member has a block
// relation, in either direction, with the viewer.
func groupHasBlockRelation(g *models.Group, rel Relations) bool {
	for _, member := range g.Members {
		if rel.BlockedByViewer[member.ID] || rel.BlockedViewer[member.ID] {
			return true
		}
	}
	return false
}
