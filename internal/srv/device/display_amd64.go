//go:build amd64

package device

import (
	"image"
	"sync"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/jypelle/gifmatrix/internal/images"
	"github.com/jypelle/gifmatrix/internal/srv/config"
	"github.com/jypelle/gifmatrix/internal/version"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

type Display struct {
	oledLock    sync.Mutex
	oledDisplay *ssd1306.Dev
	i2cBus      i2c.BusCloser

	lock           sync.RWMutex
	param          config.DisplayParam
	on             bool
	simulationMode bool
	lastImg        image.Image

	simulationWindow *app.Window
}

func (d *Display) startSimulation() {
	width := float32(d.param.Width)
	height := float32(d.param.Height)
	d.simulationWindow = app.NewWindow(
		app.Title(version.AppName),
		app.Size(unit.Px(4*width), unit.Px(4*height)),
		app.MinSize(unit.Px(width), unit.Px(height)),
	)
	go func() {
		if err := d.gioloop(); err != nil {
			logrus.Errorf("Simulation window closed: %v", err)
		}
	}()
	go app.Main()
}

func (d *Display) invalidateSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Invalidate()
	}
}

func (d *Display) closeSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Close()
	}
}

func (d *Display) gioloop() error {
	var ops op.Ops
	for {
		e := <-d.simulationWindow.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			d.lock.RLock()
			lastImg := d.lastImg
			on := d.on
			d.lock.RUnlock()

			if lastImg == nil || !on {
				lastImg = images.Blank(d.param.Bounds())
			}

			img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
