package feed

import (
	"context"
	"math"

	"campusmatch/backend/internal/models"

	"gorm.io/gorm"
)

// LoadRelations assembles the viewer's block and like sets for one feed pass.
func LoadRelations(ctx context.Context, db *gorm.DB, viewer *models.Profile) (Relations, error) {
	rel := Relations{
		BlockedByViewer: make(map[uint]bool),
		BlockedViewer:   make(map[uint]bool),
		LikedProfiles:   make(map[uint]bool),
		LikedGroups:     make(map[uint]bool),
	}
	if viewer.CurrentGroupID != nil {
		rel.ViewerGroupID = *viewer.CurrentGroupID
	}

	var blocks []models.ProfileBlock
	if err := db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", viewer.ID, viewer.ID).
		Find(&blocks).Error; err != nil {
		return rel, err
	}
	for _, b := range blocks {
		if b.BlockerID == viewer.ID {
			rel.BlockedByViewer[b.BlockedID] = true
		}
		if b.BlockedID == viewer.ID {
			rel.BlockedViewer[b.BlockerID] = true
		}
	}

	var likes []models.ProfileLike
	if err := db.WithContext(ctx).
		Where("liker_id = ?", viewer.ID).
		Find(&likes).Error; err != nil {
		return rel, err
	}
	for _, l := range likes {
		rel.LikedProfiles[l.LikedID] = true
	}

	var groupLikes []models.GroupLike
	if err := db.WithContext(ctx).
		Where("profile_id = ?", viewer.ID).
		Find(&groupLikes).Error; err != nil {
		return rel, err
	}
	for _, l := range groupLikes {
		rel.LikedGroups[l.GroupID] = true
	}

	return rel, nil
}

const earthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// WithinDistance reports whether a candidate's location falls inside the
// viewer's radius. Candidates without a location are never within range.
func WithinDistance(viewer *models.Profile, lat, lon *float64, maxKm float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	return DistanceKm(*viewer.Latitude, *viewer.Longitude, *lat, *lon) <= maxKm
}
