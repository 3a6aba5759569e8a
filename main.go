package main

import (
	"fmt"
	"os"

	"vitrine/pkg/notify"
	"vitrine/pkg/receipt"

	"github.com/gin-gonic/gin"
)

var (
	cfg       Config
	jwtSecret []byte
	validator *receipt.Validator
	notifier  notify.Notifier
)

func main() {
	cfg = loadConfig()
	jwtSecret = []byte(cfg.JWTSecret)
	validator = receipt.New(cfg.Receipt, receipt.TesseractRecognizer{})
	notifier = notify.LogNotifier{}

	// `./vitrine migrate` runs AutoMigrate + seeding and exits. Useful for
	// CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	if cfg.InboxDir != "" {
		go watchInbox(cfg.InboxDir)
	}

	r := gin.Default()

	setupRoutes(r)

	r.Run(cfg.Addr)
}
