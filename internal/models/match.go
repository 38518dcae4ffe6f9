package models

import "gorm.io/gorm"

// Match is a confirmed mutual connection between exactly two profiles.
//
// The pair is stored normalized (Profile1ID < Profile2ID) under a composite
// unique index, so at most one match can ever exist for a pair regardless of
// like order, and lookup stays symmetric. Concurrent duplicate creation
// collapses on the index rather than reaching the caller.
type Match struct {
	gorm.Model
	Profile1ID uint `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	Profile2ID uint `gorm:"not null;uniqueIndex:idx_match_pair,priority:2"`

	Profile1 Profile `gorm:"foreignKey:Profile1ID"`
	Profile2 Profile `gorm:"foreignKey:Profile2ID"`

	// Groups that produced this match (zero, one, or two — one per side).
	ProducingGroups []*Group `gorm:"many2many:group_matches;"`
}

// NormalizePair orders two profile ids the way Match stores them.
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// OtherProfileID returns the matched counterpart of the given profile.
func (m *Match) OtherProfileID(profileID uint) uint {
	if m.Profile1ID == profileID {
		return m.Profile2ID
	}
	return m.Profile1ID
}

// Involves reports whether the given profile is one of the two parties.
func (m *Match) Involves(profileID uint) bool {
	return m.Profile1ID == profileID || m.Profile2ID == profileID
}
