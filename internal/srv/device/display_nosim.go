//go:build !amd64

package device

import (
	"image"
	"sync"

	"github.com/jypelle/gifmatrix/internal/srv/config"
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
}

// Simulation has no window on this architecture, frames are only kept in memory.
func (d *Display) startSimulation() {
	logrus.Warnf("No simulation window on this architecture")
}

func (d *Display) invalidateSimulationWindow() {
}

func (d *Display) closeSimulationWindow() {
}
