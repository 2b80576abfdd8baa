package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pixicam/internal/core"
	"pixicam/internal/media"
)

// showCaptureDialog previews a stored photo and offers export and delete.
func (a *Application) showCaptureDialog(id uint64) {
	blob, err := a.library.Get(core.CategoryPhotos, id)
	if err != nil {
		a.showError("Capture unavailable", err)
		return
	}

	preview, err := capturePreview(blob)
	if err != nil {
		a.showError("Capture unreadable", err)
		return
	}

	var d dialog.Dialog
	exportBtn := widget.NewButtonWithIcon("Export", theme.DownloadIcon(), func() {
		a.exportCapture(id, blob)
	})
	deleteBtn := widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		if err := a.library.Delete(core.CategoryPhotos, id); err != nil {
			a.showError("Delete failed", err)
			return
		}
		a.info.SetStatus(fmt.Sprintf("Deleted photo #%d", id))
		d.Hide()
	})
	deleteBtn.Importance = widget.DangerImportance

	content := container.NewBorder(nil, container.NewHBox(exportBtn, deleteBtn), nil, nil, preview)
	d = dialog.NewCustom(fmt.Sprintf("Photo #%d", id), "Close", content, a.window)
	d.Resize(fyne.NewSize(560, 480))
	d.Show()
}

func capturePreview(blob []byte) (*canvas.Image, error) {
	frame, err := media.DecodeRGBA(blob)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	img, err := CopyFrame(frame, nil)
	if err != nil {
		return nil, err
	}
	preview := canvas.NewImageFromImage(img)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(480, 360))
	return preview, nil
}

func (a *Application) exportCapture(id uint64, blob []byte) {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if err := a.loader.Export(blob, path); err != nil {
			a.showError("Export failed", err)
			return
		}
		a.logger.WithFields(logrus.Fields{"id": id, "filepath": path}).Info("Photo exported")
		a.info.SetStatus(fmt.Sprintf("Exported photo #%d to %s", id, path))
	}, a.window)

	save.SetFileName(fmt.Sprintf("pixicam-%d.png", id))
	save.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	save.Show()
}
