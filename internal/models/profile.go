package models

import (
	"time"

	"gorm.io/gorm"
)

// Gender identifies how a profile presents itself in the feed.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
)

// ShowMe is a profile's viewing preference for the swipe feed.
type ShowMe string

const (
	ShowMeMale   ShowMe = "male"
	ShowMeFemale ShowMe = "female"
	ShowMeAny    ShowMe = "any"
)

// Profile represents an individual identity in the system.
type Profile struct {
	gorm.Model
	Email        string `gorm:"size:255;unique;not null"`
	Firstname    string `gorm:"size:255"`
	Lastname     string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
	Active       bool   `gorm:"not null;default:true"`

	// HasAccount is true once onboarding is complete. Profiles without it
	// never enter the candidate pool.
	HasAccount bool `gorm:"not null;default:false"`

	Gender Gender `gorm:"type:varchar(10);not null;default:'male'"`
	ShowMe ShowMe `gorm:"type:varchar(10);not null;default:'any'"`

	Birthdate   *time.Time
	Latitude    *float64
	Longitude   *float64
	University  string `gorm:"size:255"`
	Description string `gorm:"size:500"`

	// A profile can be a member of at most one group at a time.
	// GroupJoinedAt establishes the group's stored membership order.
	CurrentGroupID *uint  `gorm:"index"`
	CurrentGroup   *Group `gorm:"foreignKey:CurrentGroupID"`
	GroupJoinedAt  *time.Time
}

// Age derives the profile's age from its birthdate at the given instant.
// Returns 0 when no birthdate is set.
func (p *Profile) Age(now time.Time) int {
	if p.Birthdate == nil {
		return 0
	}
	b := *p.Birthdate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// HasResolvedAge reports whether the feed can compute an age band for this profile.
func (p *Profile) HasResolvedAge() bool {
	return p.Birthdate != nil
}

// HasResolvedLocation reports whether the feed can narrow candidates by distance.
func (p *Profile) HasResolvedLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
