package device

import (
	"errors"
	"image"

	"github.com/jypelle/gifmatrix/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

var ErrDisplayNotStarted = errors.New("display not started")

func NewDisplay(param config.DisplayParam, simulationMode bool, on bool) *Display {
	if !simulationMode {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize host: %v\n", err)
		}
	}

	device := Display{
		param:          param,
		simulationMode: simulationMode,
		on:             on,
	}

	return &device
}

func (d *Display) Start() {
	logrus.Infof("Start display device")

	if d.simulationMode {
		d.startSimulation()
		return
	}

	var err error
	// Open a handle to the first available I²C bus:
	d.i2cBus, err = i2creg.Open("")
	if err != nil {
		logrus.Fatalf("Unable to open i2c bus: %v\n", err)
	}

	// Open a handle to a ssd1306 connected on the I²C bus:
	opts := ssd1306.DefaultOpts
	opts.W = d.param.Width
	opts.H = d.param.Height
	opts.Rotated = d.param.Rotated
	on := d.IsOn()
	d.oledLock.Lock()
	defer d.oledLock.Unlock()
	d.oledDisplay, err = ssd1306.NewI2C(d.i2cBus, &opts)
	if err != nil {
		logrus.Fatalf("Unable to initialize oled display: %v\n", err)
	}

	if err := d.oledDisplay.SetContrast(byte(d.param.Contrast)); err != nil {
		logrus.Warnf("Unable to set display contrast: %v", err)
	}
	if !on {
		if err := d.oledDisplay.Halt(); err != nil {
			logrus.Warnf("Unable to halt display: %v", err)
		}
	}
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	if d.simulationMode {
		d.closeSimulationWindow()
		return
	}

	d.oledLock.Lock()
	defer d.oledLock.Unlock()
	if d.i2cBus != nil {
		d.i2cBus.Close()
		d.i2cBus = nil
		d.oledDisplay = nil
	}
}

func (d *Display) Bounds() image.Rectangle {
	return d.param.Bounds()
}

// Present shows img if the display is on. While off, img is kept and shown when switched on.
func (d *Display) Present(img image.Image) error {
	d.lock.Lock()
	d.lastImg = img
	on := d.on
	d.lock.Unlock()

	if !on {
		return nil
	}
	if d.simulationMode {
		d.invalidateSimulationWindow()
		return nil
	}
	return d.draw(img)
}

func (d *Display) draw(img image.Image) error {
	d.oledLock.Lock()
	defer d.oledLock.Unlock()
	if d.oledDisplay == nil {
		return ErrDisplayNotStarted
	}
	return d.oledDisplay.Draw(d.oledDisplay.Bounds(), img, image.Point{})
}

func (d *Display) SetOff() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setOff()
}

func (d *Display) setOff() {
	d.on = false
	if d.simulationMode {
		d.invalidateSimulationWindow()
		return
	}
	d.oledLock.Lock()
	defer d.oledLock.Unlock()
	if d.oledDisplay != nil {
		if err := d.oledDisplay.Halt(); err != nil {
			logrus.Warnf("Unable to halt display: %v", err)
		}
	}
}

func (d *Display) SetOn() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setOn()
}

func (d *Display) setOn() {
	d.on = true
	if d.simulationMode {
		d.invalidateSimulationWindow()
		return
	}
	d.oledLock.Lock()
	if d.oledDisplay != nil {
		d.oledDisplay.SetContrast(byte(d.param.Contrast)) // Hack to force display on (calling Draw() is not enough)
	}
	d.oledLock.Unlock()
	if d.lastImg != nil {
		if err := d.draw(d.lastImg); err != nil {
			logrus.Warnf("Unable to refresh display: %v", err)
		}
	}
}

func (d *Display) Switch() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.on {
		d.setOff()
	} else {
		d.setOn()
	}

	return d.on
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}
