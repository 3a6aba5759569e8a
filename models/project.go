package models

import "time"

// Project statuses.
const (
	ProjectPending    = "pending"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
)

// Project is a client's website request. Reference is the payment
// reference code the client must put on the bank transfer; it correlates
// uploaded receipts back to the project.
type Project struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClientID    uint   `gorm:"index;not null"`
	Client      User   `gorm:"foreignKey:ClientID;references:ID"`
	Reference   string `gorm:"size:32;uniqueIndex;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"size:2048"`
	// Quote is the agreed price in whole currency units.
	Quote    float64   `gorm:"not null"`
	Status   string    `gorm:"size:32;not null;default:pending;index"`
	Payments []Payment `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
