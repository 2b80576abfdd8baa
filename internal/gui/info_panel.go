// Status and tick statistics panel
package gui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"pixicam/internal/core"
	"pixicam/internal/filters"
	"pixicam/internal/metrics"
)

// InfoPanel shows the session phase and live statistics
type InfoPanel struct {
	container *fyne.Container

	phaseLabel  *widget.Label
	statusLabel *widget.Label
	fpsLabel    *widget.Label
	ticksLabel  *widget.Label
	filterLabel *widget.Label
}

func NewInfoPanel() *InfoPanel {
	ip := &InfoPanel{
		phaseLabel:  widget.NewLabel("Phase: initializing"),
		statusLabel: widget.NewLabel("Waiting for camera..."),
		fpsLabel:    widget.NewLabel("FPS: -"),
		ticksLabel:  widget.NewLabel("Frames: 0"),
		filterLabel: widget.NewLabel(""),
	}
	ip.statusLabel.Wrapping = fyne.TextWrapWord

	ip.container = container.NewVBox(
		widget.NewCard("Status", "", container.NewVBox(ip.phaseLabel, ip.statusLabel)),
		widget.NewCard("Statistics", "", container.NewVBox(ip.fpsLabel, ip.ticksLabel, ip.filterLabel)),
	)
	return ip
}

// SetStatus replaces the status line.
func (ip *InfoPanel) SetStatus(message string) {
	ip.statusLabel.SetText(message)
}

// Update refreshes the statistics for the given phase and active filter.
func (ip *InfoPanel) Update(phase core.Phase, active filters.Filter, stats metrics.Stats) {
	ip.phaseLabel.SetText("Phase: " + phase.String())
	ip.fpsLabel.SetText(fmt.Sprintf("FPS: %.1f", stats.FPS))
	ip.ticksLabel.SetText(fmt.Sprintf("Frames: %d", stats.Ticks))

	if fs, ok := stats.PerFilter[active.String()]; ok {
		ip.filterLabel.SetText(fmt.Sprintf("%s: %s avg, %s max", active, fs.Mean().Round(time.Microsecond), fs.Slowest.Round(time.Microsecond)))
	} else {
		ip.filterLabel.SetText(active.String())
	}
}

func (ip *InfoPanel) GetContainer() fyne.CanvasObject {
	return ip.container
}
