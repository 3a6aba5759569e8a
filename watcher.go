package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vitrine/models"
	"vitrine/pkg/receipt"

	"github.com/fsnotify/fsnotify"
)

// watchInbox lets an admin rescue a stuck payment without a client round
// trip: dropping a cleaner scan named <paymentID>.jpg into the inbox
// revalidates that payment with the new image.
func watchInbox(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("inbox: create dir %s: %v", dir, err)
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("inbox: watcher init: %v", err)
		return
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		log.Printf("inbox: watch %s: %v", dir, err)
		return
	}
	log.Printf("inbox: watching %s", dir)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// give the copy a moment to finish
			time.Sleep(200 * time.Millisecond)
			if err := revalidateFromInbox(ev.Name); err != nil {
				log.Printf("inbox: %s: %v", ev.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("inbox: watcher error: %v", err)
		}
	}
}

// revalidateFromInbox re-runs the validator for the payment whose ID names
// the dropped file. Files that don't parse as a payment ID are ignored.
func revalidateFromInbox(path string) error {
	base := filepath.Base(path)
	idStr := strings.TrimSuffix(base, filepath.Ext(base))
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return nil
	}
	var pay models.Payment
	if err := db.First(&pay, id).Error; err != nil {
		return err
	}
	if pay.Status == models.PaymentVerified {
		log.Printf("inbox: payment %d already verified, skipping", pay.ID)
		return nil
	}
	var project models.Project
	if err := db.First(&project, pay.ProjectID).Error; err != nil {
		return err
	}

	expected := receipt.Expected{ReferenceCode: project.Reference, Amount: project.Quote}
	fields, result, err := validator.Validate(path, expected, time.Now())
	if err != nil {
		return err
	}

	pay.ExtractedCode = fields.ReferenceCode
	pay.ExtractedAmount = fields.Amount
	pay.ExtractedDate = fields.Date
	pay.RawText = fields.RawText
	pay.CodeMatches = result.ReferenceCodeMatches
	pay.AmountMatches = result.AmountMatches
	pay.DatePlausible = result.DatePlausible
	pay.Confidence = result.Confidence
	pay.Status = decidePaymentStatus(result.Confidence)
	if err := db.Save(&pay).Error; err != nil {
		return err
	}
	if pay.Status == models.PaymentVerified {
		progressPaidProject(&project)
	}
	log.Printf("inbox: payment %d revalidated confidence=%d status=%s", pay.ID, pay.Confidence, pay.Status)
	return nil
}
