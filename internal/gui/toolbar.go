// Filter selection and capture controls
package gui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pixicam/internal/filters"
)

type Toolbar struct {
	container *fyne.Container

	filterButtons map[filters.Filter]*widget.Button
	captureBtn    *widget.Button
	active        filters.Filter

	// Callbacks
	onFilterSelected func(filters.Filter)
	onCapture        func()
}

func NewToolbar(initial filters.Filter) *Toolbar {
	tb := &Toolbar{
		filterButtons: make(map[filters.Filter]*widget.Button),
		active:        initial,
	}
	tb.initializeUI()
	return tb
}

func (tb *Toolbar) initializeUI() {
	filterRow := container.NewHBox()
	for _, f := range filters.All() {
		f := f
		btn := widget.NewButton(buttonLabel(f), func() { tb.selectFilter(f) })
		tb.filterButtons[f] = btn
		filterRow.Add(btn)
	}
	tb.highlight()

	tb.captureBtn = widget.NewButtonWithIcon("Capture", theme.MediaPhotoIcon(), func() {
		if tb.onCapture != nil {
			tb.onCapture()
		}
	})
	tb.captureBtn.Importance = widget.HighImportance

	tb.container = container.NewBorder(
		nil, nil,
		container.NewHScroll(filterRow), // left
		tb.captureBtn,                   // right
	)
}

func buttonLabel(f filters.Filter) string {
	words := strings.Split(f.String(), "-")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (tb *Toolbar) selectFilter(f filters.Filter) {
	tb.active = f
	tb.highlight()
	if tb.onFilterSelected != nil {
		tb.onFilterSelected(f)
	}
}

func (tb *Toolbar) highlight() {
	for f, btn := range tb.filterButtons {
		if f == tb.active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// Active returns the highlighted filter.
func (tb *Toolbar) Active() filters.Filter { return tb.active }

func (tb *Toolbar) SetCaptureEnabled(enabled bool) {
	if enabled {
		tb.captureBtn.Enable()
	} else {
		tb.captureBtn.Disable()
	}
}

// Disable turns every control off. Used once the session is in error.
func (tb *Toolbar) Disable() {
	for _, btn := range tb.filterButtons {
		btn.Disable()
	}
	tb.captureBtn.Disable()
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.container
}

func (tb *Toolbar) SetCallbacks(onFilterSelected func(filters.Filter), onCapture func()) {
	tb.onFilterSelected = onFilterSelected
	tb.onCapture = onCapture
}
