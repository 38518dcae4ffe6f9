package matchmaking

import (
	"context"
	"errors"

	"campusmatch/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchLedger is the read/write store of match records and their
// group associations. It owns the no-duplicate-match guarantee: pairs are
// stored normalized and CreateMatch is an atomic insert-if-absent.
type MatchLedger struct {
	db *gorm.DB
}

// NewMatchLedger creates a ledger bound to the given DB connection.
func NewMatchLedger(database *gorm.DB) *MatchLedger {
	return &MatchLedger{db: database}
}

// FindMatch returns the existing match pairing two profiles, or nil.
// Symmetric: FindMatch(a, b) and FindMatch(b, a) hit the same row because
// pairs are stored normalized.
func (l *MatchLedger) FindMatch(ctx context.Context, a, b uint) (*models.Match, error) {
	p1, p2 := models.NormalizePair(a, b)
	var match models.Match
	err := l.db.WithContext(ctx).
		Where("profile1_id = ? AND profile2_id = ?", p1, p2).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ProfileHasMatchWithAnyOf reports whether the profile already has a match
// with any of the given members. Used to detect that two parties already
// connected through someone.
func (l *MatchLedger) ProfileHasMatchWithAnyOf(ctx context.Context, profileID uint, memberIDs []uint) (bool, error) {
	if len(memberIDs) == 0 {
		return false, nil
	}
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("(profile1_id = ? AND profile2_id IN ?) OR (profile2_id = ? AND profile1_id IN ?)",
			profileID, memberIDs, profileID, memberIDs).
		Count(&count).Error
	return count > 0, err
}

// GroupsShareAnyMatch reports whether any match is associated with both groups.
func (l *MatchLedger) GroupsShareAnyMatch(ctx context.Context, group1ID, group2ID uint) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.Match{}).
		Joins("JOIN group_matches gm1 ON gm1.match_id = matches.id").
		Joins("JOIN group_matches gm2 ON gm2.match_id = matches.id").
		Where("gm1.group_id = ? AND gm2.group_id = ?", group1ID, group2ID).
		Count(&count).Error
	return count > 0, err
}

// CreateMatch inserts a match for the pair unless one already exists.
//
// The insert rides the unique pair index with an ON CONFLICT DO NOTHING, so
// concurrent duplicate attempts collapse to one row. When the insert loses
// the race (or the pair was already matched), the existing row is re-read and
// returned with created = false; the caller never sees a duplicate-key error.
func (l *MatchLedger) CreateMatch(ctx context.Context, a, b uint, producingGroupIDs []uint) (*models.Match, bool, error) {
	p1, p2 := models.NormalizePair(a, b)
	match := models.Match{Profile1ID: p1, Profile2ID: p2}

	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile1_id"}, {Name: "profile2_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if result.Error != nil {
		return nil, false, result.Error
	}

	if result.RowsAffected == 0 {
		existing, err := l.FindMatch(ctx, a, b)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, gorm.ErrRecordNotFound
		}
		return existing, false, nil
	}

	for _, groupID := range producingGroupIDs {
		err := l.db.WithContext(ctx).
			Table("group_matches").
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(map[string]interface{}{"group_id": groupID, "match_id": match.ID}).Error
		if err != nil {
			return nil, false, err
		}
	}

	return &match, true, nil
}

// MatchByID returns a match with both profiles preloaded, or ErrNotFound.
func (l *MatchLedger) MatchByID(ctx context.Context, matchID uint) (*models.Match, error) {
	var match models.Match
	err := l.db.WithContext(ctx).
		Preload("Profile1").
		Preload("Profile2").
		First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// MatchesOf returns every match the profile is a party to, newest first.
func (l *MatchLedger) MatchesOf(ctx context.Context, profileID uint) ([]models.Match, error) {
	var matches []models.Match
	err := l.db.WithContext(ctx).
		Preload("Profile1").
		Preload("Profile2").
		Preload("ProducingGroups").
		Where("profile1_id = ? OR profile2_id = ?", profileID, profileID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// DeleteMatch removes the match row and its group associations. The
// group_matches rows are provenance only, so they go with the match, not
// with the groups.
func (l *MatchLedger) DeleteMatch(ctx context.Context, matchID uint) error {
	if err := l.db.WithContext(ctx).
		Exec("DELETE FROM group_matches WHERE match_id = ?", matchID).Error; err != nil {
		return err
	}
	return l.db.WithContext(ctx).Delete(&models.Match{}, matchID).Error
}
