package matchmaking

import (
	"context"
	"errors"

	"campusmatch/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityGraph provides id-based adjacency queries over profiles, group
// membership, blocks, and like edges, plus the edge mutations the resolver
// performs. Decision logic never traverses live object graphs; it asks this
// surface instead.
type IdentityGraph struct {
	db *gorm.DB
}

// NewIdentityGraph creates a graph view bound to the given DB connection.
func NewIdentityGraph(database *gorm.DB) *IdentityGraph {
	return &IdentityGraph{db: database}
}

// HasLiked reports whether liker has a recorded like edge toward liked.
func (g *IdentityGraph) HasLiked(ctx context.Context, likerID, likedID uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.ProfileLike{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	return count > 0, err
}

// GroupHasLikeFrom reports whether the profile has a recorded like edge
// toward the group.
func (g *IdentityGraph) GroupHasLikeFrom(ctx context.Context, groupID, profileID uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.GroupLike{}).
		Where("group_id = ? AND profile_id = ?", groupID, profileID).
		Count(&count).Error
	return count > 0, err
}

// GroupOf returns the profile's current group, or nil when the profile is
// standalone. Returns ErrNotFound when the profile itself is absent.
func (g *IdentityGraph) GroupOf(ctx context.Context, profileID uint) (*models.Group, error) {
	var profile models.Profile
	if err := g.db.WithContext(ctx).First(&profile, profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if profile.CurrentGroupID == nil {
		return nil, nil
	}
	var group models.Group
	if err := g.db.WithContext(ctx).First(&group, *profile.CurrentGroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// IsBlockedEitherWay reports whether either profile has blocked the other.
func (g *IdentityGraph) IsBlockedEitherWay(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.ProfileBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// MembersInOrder returns the group's members in stored membership order:
// join time first, id as tiebreak. The resolver's first-eligible-member rule
// depends on this ordering being stable.
func (g *IdentityGraph) MembersInOrder(ctx context.Context, groupID uint) ([]models.Profile, error) {
	var members []models.Profile
	err := g.db.WithContext(ctx).
		Where("current_group_id = ?", groupID).
		Order("group_joined_at ASC, id ASC").
		Find(&members).Error
	return members, err
}

// RecordProfileLike writes the directed liker → liked edge and reports
// whether a new row was inserted. Repeating the same like is a no-op thanks
// to the composite primary key.
func (g *IdentityGraph) RecordProfileLike(ctx context.Context, likerID, likedID uint) (bool, error) {
	like := models.ProfileLike{LikerID: likerID, LikedID: likedID}
	result := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	return result.RowsAffected > 0, result.Error
}

// RecordGroupLike writes the directed profile → group edge and reports
// whether a new row was inserted.
func (g *IdentityGraph) RecordGroupLike(ctx context.Context, profileID, groupID uint) (bool, error) {
	like := models.GroupLike{ProfileID: profileID, GroupID: groupID}
	result := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	return result.RowsAffected > 0, result.Error
}

// RemoveProfileLike deletes the directed edge and reports whether a row was
// actually removed.
func (g *IdentityGraph) RemoveProfileLike(ctx context.Context, likerID, likedID uint) (bool, error) {
	result := g.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Delete(&models.ProfileLike{})
	return result.RowsAffected > 0, result.Error
}

// RemoveGroupLike deletes the directed profile → group edge.
func (g *IdentityGraph) RemoveGroupLike(ctx context.Context, profileID, groupID uint) (bool, error) {
	result := g.db.WithContext(ctx).
		Where("profile_id = ? AND group_id = ?", profileID, groupID).
		Delete(&models.GroupLike{})
	return result.RowsAffected > 0, result.Error
}
