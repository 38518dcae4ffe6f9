package models

import "gorm.io/gorm"

// Group represents a set of profiles acting as a single unit in the swipe feed.
// The owner is always a member. Gender and age are derived from the owner on
// creation; TotalMembers is a cached count recomputed on every membership
// change.
type Group struct {
	gorm.Model
	OwnerID   uint   `gorm:"not null;index"`
	ShareLink string `gorm:"size:64;unique;not null"`

	Gender Gender `gorm:"type:varchar(10);not null"`
	Age    int    `gorm:"not null"`

	TotalMembers int `gorm:"not null;default:1"`

	Owner   Profile   `gorm:"foreignKey:OwnerID"`
	Members []Profile `gorm:"foreignKey:CurrentGroupID"`

	// Matches this group produced. Provenance only: deleting the group
	// leaves the matches untouched.
	Matches []*Match `gorm:"many2many:group_matches;"`
}
