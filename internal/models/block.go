package models

import "time"

// ProfileBlock is a directed "blocker → blocked" edge.
// Blocking is checked in both directions independently by the feed filter
// and the group member-block exclusion.
type ProfileBlock struct {
	BlockerID uint `gorm:"primaryKey"`
	BlockedID uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Blocker Profile `gorm:"foreignKey:BlockerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Blocked Profile `gorm:"foreignKey:BlockedID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
