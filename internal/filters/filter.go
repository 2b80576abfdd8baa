// Package filters is the catalog of visual effects applied to each live frame.
package filters

import (
	"github.com/pkg/errors"
)

// Filter identifies one entry of the closed effect catalog.
type Filter int

const (
	None Filter = iota
	Edge
	Cartoon
	Emboss
	Sharpen
	PencilSketch
	Posterize
)

// ErrUnknownFilter is returned by Parse for names outside the catalog.
var ErrUnknownFilter = errors.New("unknown filter")

var names = [...]string{
	None:         "none",
	Edge:         "edge",
	Cartoon:      "cartoon",
	Emboss:       "emboss",
	Sharpen:      "sharpen",
	PencilSketch: "pencil-sketch",
	Posterize:    "posterize",
}

var descriptions = [...]string{
	None:         "Unfiltered camera feed",
	Edge:         "Canny edge detection",
	Cartoon:      "Adaptive-threshold outlines over smoothed color",
	Emboss:       "3x3 relief convolution",
	Sharpen:      "3x3 Laplacian sharpening",
	PencilSketch: "Inverted Sobel gradient sketch",
	Posterize:    "Four levels per color channel",
}

// All returns every filter in display order.
func All() []Filter {
	return []Filter{None, Edge, Cartoon, Emboss, Sharpen, PencilSketch, Posterize}
}

// Valid reports whether f is a catalog entry.
func (f Filter) Valid() bool {
	return f >= None && f <= Posterize
}

func (f Filter) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return names[f]
}

// Description returns a one-line label for the filter.
func (f Filter) Description() string {
	if !f.Valid() {
		return ""
	}
	return descriptions[f]
}

// Parse maps a filter name as used by the UI and configuration back to a Filter.
func Parse(name string) (Filter, error) {
	for _, f := range All() {
		if names[f] == name {
			return f, nil
		}
	}
	return None, errors.Wrapf(ErrUnknownFilter, "%q", name)
}
