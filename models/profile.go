package models

import "time"

// Profile is a client's contact card (one-to-one with User). Notifications
// about payment decisions go to Email when set.
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	// Active flags whether the client account is live; soft-state instead
	// of physically deleting the record.
	Active  bool   `gorm:"default:true;not null"`
	UserID  uint   `gorm:"uniqueIndex;not null"`
	User    User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name    string `gorm:"size:255;not null"`
	Company string `gorm:"size:255"`
	Address string `gorm:"size:512"`
	Email   string `gorm:"size:255"`
	Phone   string `gorm:"size:64"`
}
