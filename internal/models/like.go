package models

import "time"

// ProfileLike is a directed "liker → liked" edge between two profiles.
// The composite primary key guarantees a single row per pair, so repeating
// a like is a no-op at the storage level.
type ProfileLike struct {
	LikerID   uint `gorm:"primaryKey"`
	LikedID   uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Liker Profile `gorm:"foreignKey:LikerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Liked Profile `gorm:"foreignKey:LikedID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// GroupLike is a directed "profile → group" like edge.
type GroupLike struct {
	ProfileID uint `gorm:"primaryKey"`
	GroupID   uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Profile Profile `gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Group   Group   `gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
