package models

import "time"

// Payment statuses. A payment moves verified/review/rejected straight from
// the validator score; rejected_final means the attempt budget is spent or
// an admin turned it down for good.
const (
	PaymentVerified      = "verified"
	PaymentReview        = "review"
	PaymentRejected      = "rejected"
	PaymentRejectedFinal = "rejected_final"
)

// Payment is one uploaded bank-transfer receipt and the outcome of its
// validation. Extracted fields stay nullable: absence of a field is a
// normal low-confidence outcome, not an error. RawText is kept for audit
// and for the admin review screen.
type Payment struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProjectID   uint    `gorm:"index;not null"`
	Project     Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FileName    string  `gorm:"size:255;not null"`
	StorePath   string  `gorm:"column:store_path;size:512"`
	ContentType string  `gorm:"size:128"`

	ExpectedAmount  float64
	ExtractedCode   *string `gorm:"size:64"`
	ExtractedAmount *float64
	ExtractedDate   *time.Time
	RawText         string `gorm:"type:text"`

	CodeMatches   bool
	AmountMatches bool
	DatePlausible bool
	Confidence    int `gorm:"not null"`

	Status  string `gorm:"size:32;not null;index"`
	Attempt int    `gorm:"not null;default:1"`

	ReviewedBy *uint  `gorm:"index"`
	ReviewNote string `gorm:"size:512"`
}
