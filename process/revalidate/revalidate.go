package revalidate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"vitrine/models"
	"vitrine/pkg/receipt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Options tunes a revalidation sweep. Thresholds mirror the server's
// score bands.
type Options struct {
	UploadBase      string
	AutoAcceptScore int
	ReviewScore     int
	Dry             bool
}

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// Run re-validates every payment sitting in review or rejected against its
// stored receipt image. Useful after tuning the extraction rules or
// installing a better OCR language pack. With Dry set it only prints what
// would change.
func Run(opts Options) error {
	gdb := mustDBFromEnv()
	v := receipt.New(receipt.DefaultProfile(), receipt.TesseractRecognizer{})

	var payments []models.Payment
	if err := gdb.Where("status IN ?", []string{models.PaymentReview, models.PaymentRejected}).Find(&payments).Error; err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	log.Printf("revalidate: %d payment(s) to sweep", len(payments))

	for _, pay := range payments {
		var project models.Project
		if err := gdb.First(&project, pay.ProjectID).Error; err != nil {
			log.Printf("payment %d: project %d missing: %v", pay.ID, pay.ProjectID, err)
			continue
		}
		full := filepath.Join(opts.UploadBase, pay.StorePath)
		expected := receipt.Expected{ReferenceCode: project.Reference, Amount: project.Quote}
		fields, result, err := v.Validate(full, expected, time.Now())
		if err != nil {
			log.Printf("payment %d: validate %s: %v", pay.ID, full, err)
			continue
		}

		status := models.PaymentRejected
		switch {
		case result.Confidence >= opts.AutoAcceptScore:
			status = models.PaymentVerified
		case result.Confidence >= opts.ReviewScore:
			status = models.PaymentReview
		}
		if status == pay.Status && result.Confidence == pay.Confidence {
			continue
		}
		if opts.Dry {
			log.Printf("payment %d: would move %s(%d) -> %s(%d)", pay.ID, pay.Status, pay.Confidence, status, result.Confidence)
			continue
		}

		pay.ExtractedCode = fields.ReferenceCode
		pay.ExtractedAmount = fields.Amount
		pay.ExtractedDate = fields.Date
		pay.RawText = fields.RawText
		pay.CodeMatches = result.ReferenceCodeMatches
		pay.AmountMatches = result.AmountMatches
		pay.DatePlausible = result.DatePlausible
		pay.Confidence = result.Confidence
		pay.Status = status
		if err := gdb.Save(&pay).Error; err != nil {
			log.Printf("payment %d: save: %v", pay.ID, err)
			continue
		}
		log.Printf("payment %d: moved to %s confidence=%d", pay.ID, status, result.Confidence)
	}
	return nil
}
