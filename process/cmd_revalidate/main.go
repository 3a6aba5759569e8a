package main

import (
	"flag"
	"fmt"
	"os"

	"vitrine/process/revalidate"
)

func main() {
	uploadBase := flag.String("upload-base", "uploads", "base directory receipt images are stored under")
	autoAccept := flag.Int("auto-accept", 80, "confidence at or above which a payment verifies")
	review := flag.Int("review", 50, "confidence at or above which a payment is held for review")
	dry := flag.Bool("dry-run", true, "dry-run: don't write to DB")
	flag.Parse()

	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export and retry")
		os.Exit(2)
	}

	opts := revalidate.Options{
		UploadBase:      *uploadBase,
		AutoAcceptScore: *autoAccept,
		ReviewScore:     *review,
		Dry:             *dry,
	}
	if err := revalidate.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
}
