package receipt

import "errors"

// ErrImageUnreadable is returned when the upload cannot be decoded as an
// image. Fatal for this attempt; the user has to supply a new photo.
var ErrImageUnreadable = errors.New("image unreadable")

// ErrOCRUnavailable is returned when the recognition engine itself fails.
// Retryable with the same image.
var ErrOCRUnavailable = errors.New("ocr unavailable")
