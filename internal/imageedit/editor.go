// Package imageedit is the client side of the external image editing
// service: given a prompt, a PNG image and a PNG mask whose transparent
// pixels mark the area to repaint, the service returns the URL of the edited
// image.
package imageedit

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by editors built without credentials.
var ErrNotConfigured = errors.New("image editing is not configured")

// Request is one edit.
type Request struct {
	Prompt string
	Image  []byte
	Mask   []byte
}

// Editor performs image edits. Implementations must honour ctx
// cancellation: the image edit node cancels a call as soon as a newer one is
// issued.
type Editor interface {
	Edit(ctx context.Context, req Request) (url string, err error)
}

// Unconfigured is the Editor used when no API key is available.
type Unconfigured struct{}

func (Unconfigured) Edit(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
