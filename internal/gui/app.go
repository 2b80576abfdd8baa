// Main camera window: live preview, filter bar, capture and status panel
package gui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"github.com/sirupsen/logrus"

	"pixicam/internal/core"
	"pixicam/internal/filters"
	"pixicam/internal/media"
)

const (
	statsRefresh = time.Second
	quitGrace    = 2 * time.Second
)

// CaptureLibrary gives the capture dialog access to stored photos.
type CaptureLibrary interface {
	Get(category string, id uint64) ([]byte, error)
	Delete(category string, id uint64) error
}

// Application is the camera window bound to one render loop.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Entry

	loop     *core.Loop
	library  CaptureLibrary
	loader   *media.Loader
	renderer *CanvasRenderer

	toolbar *Toolbar
	info    *InfoPanel

	ctx    context.Context
	cancel context.CancelFunc
}

func NewApplication(app fyne.App, logger *logrus.Logger, loop *core.Loop, renderer *CanvasRenderer, library CaptureLibrary, loader *media.Loader) *Application {
	window := app.NewWindow("Pixicam")
	window.Resize(fyne.NewSize(1024, 720))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		app:      app,
		window:   window,
		logger:   logger.WithField("session_id", loop.Session().ID()),
		loop:     loop,
		library:  library,
		loader:   loader,
		renderer: renderer,
		toolbar:  NewToolbar(loop.Session().Filter()),
		info:     NewInfoPanel(),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupLayout()
	a.setupCallbacks()
	return a
}

func (a *Application) setupLayout() {
	split := container.NewHSplit(
		container.NewPadded(a.renderer.Object()),
		container.NewVScroll(a.info.GetContainer()),
	)
	split.SetOffset(0.78)

	a.window.SetContent(container.NewBorder(
		a.toolbar.GetContainer(), // top
		nil, nil, nil,
		split,
	))
}

func (a *Application) setupCallbacks() {
	a.toolbar.SetCallbacks(
		// onFilterSelected
		func(f filters.Filter) {
			a.loop.SelectFilter(f)
			a.info.SetStatus(fmt.Sprintf("Filter: %s", f.Description()))
		},
		// onCapture
		a.capture,
	)

	a.window.SetCloseIntercept(func() {
		a.info.SetStatus("Stopping...")
		a.cancel()
		go func() {
			select {
			case <-a.loop.Done():
			case <-time.After(quitGrace):
				a.logger.Warn("Render loop did not stop in time")
			}
			fyne.Do(a.app.Quit)
		}()
	})
}

// ShowAndRun starts the render loop and blocks in the fyne event loop.
func (a *Application) ShowAndRun() {
	a.logger.Info("Showing camera window")

	go a.runLoop()
	go a.refreshStats()

	a.window.ShowAndRun()
	a.cancel()
}

func (a *Application) runLoop() {
	err := a.loop.Run(a.ctx)
	fyne.Do(func() { a.handleLoopExit(err) })
}

// handleLoopExit leaves the window open on a fault with the controls off.
// Error is terminal; only a restart brings the camera back.
func (a *Application) handleLoopExit(err error) {
	session := a.loop.Session()
	a.info.Update(session.Phase(), session.Filter(), session.Recorder().Snapshot())
	if err == nil {
		return
	}

	a.toolbar.Disable()
	a.info.SetStatus(fmt.Sprintf("Error: %v", err))
	a.logger.WithError(err).Error("Camera stopped")
	dialog.ShowError(err, a.window)
}

func (a *Application) refreshStats() {
	ticker := time.NewTicker(statsRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-a.loop.Done():
			return
		case <-ticker.C:
			fyne.Do(a.refreshInfo)
		}
	}
}

// refreshInfo runs on the UI thread, where the toolbar state lives.
func (a *Application) refreshInfo() {
	session := a.loop.Session()
	a.info.Update(session.Phase(), a.toolbar.Active(), session.Recorder().Snapshot())
}

func (a *Application) capture() {
	a.toolbar.SetCaptureEnabled(false)
	go func() {
		id, err := a.loop.Capture(a.ctx)
		fyne.Do(func() { a.captureDone(id, err) })
	}()
}

// captureDone runs on the UI thread. The capture button stays off once the
// loop has stopped.
func (a *Application) captureDone(id uint64, err error) {
	select {
	case <-a.loop.Done():
		if err != nil {
			a.logger.WithError(err).Debug("Capture abandoned, render loop stopped")
			return
		}
	default:
		a.toolbar.SetCaptureEnabled(true)
	}

	if err != nil {
		a.showError("Capture failed", err)
		return
	}
	a.info.SetStatus(fmt.Sprintf("Saved photo #%d", id))
	a.showCaptureDialog(id)
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.info.SetStatus(fmt.Sprintf("%s: %v", title, err))
}

// ShowStartupError opens a window that only reports why the camera could not
// be started, for failures that happen before a session exists.
func ShowStartupError(app fyne.App, err error) {
	window := app.NewWindow("Pixicam")
	window.Resize(fyne.NewSize(480, 200))
	window.CenterOnScreen()

	info := NewInfoPanel()
	info.phaseLabel.SetText("Phase: " + core.PhaseError.String())
	info.SetStatus(fmt.Sprintf("Error: %v", err))
	window.SetContent(info.GetContainer())
	window.ShowAndRun()
}
