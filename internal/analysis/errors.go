package analysis

import (
	"errors"

	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

var (
	// ErrNoImage is returned when a request carries no image at all.
	ErrNoImage = errors.New("No image provided")

	// ErrUnreadableImage is returned when the image bytes cannot be decoded.
	ErrUnreadableImage = imaging.ErrUnreadableImage

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("unknown analysis backend")

	// ErrInvalidOptions is returned when pipeline parameters fail validation.
	ErrInvalidOptions = errors.New("invalid analysis options")
)
