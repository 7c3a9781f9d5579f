package srv

import (
	"context"
	"errors"
	"image"
	"os"
	"os/exec"
	"time"

	"github.com/jypelle/gifmatrix/internal/images"
	"github.com/jypelle/gifmatrix/internal/srv/api"
	"github.com/jypelle/gifmatrix/internal/srv/config"
	"github.com/jypelle/gifmatrix/internal/srv/device"
	"github.com/jypelle/gifmatrix/internal/srv/engine"
	"github.com/jypelle/gifmatrix/internal/srv/event"
	"github.com/jypelle/gifmatrix/internal/srv/library"
	"github.com/jypelle/gifmatrix/internal/version"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig
	displayDevice *device.Display
	buttonsDevice *device.Buttons
	apiDevice     *api.Api

	library    *library.Library
	controller *engine.Controller
	scheduler  *engine.Scheduler

	schedulerCancel context.CancelFunc
	schedulerDone   chan error

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

// NewServerApp builds the server, a non empty libraryFolder replaces the one of the param file.
func NewServerApp(configDir string, libraryFolder string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of gifmatrix server %s ...", version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
	}
	if libraryFolder != "" {
		app.SetLibraryFolder(libraryFolder)
	}

	app.displayDevice = device.NewDisplay(app.Display, app.SimulationMode, app.DisplayOn())
	app.buttonsDevice = device.NewButtons(app.Buttons, app.SimulationMode)

	bounds := app.Display.Bounds()
	app.library = library.NewLibrary(app.GetCompleteLibraryFolder(), bounds, app.Api.MaxUploadSize)
	app.controller = engine.NewController()

	clock := engine.NewClockRenderer(bounds, app.Clock.ClockParams(), images.NewGlyphSet(2), images.NewGlyphSet(1))
	player := engine.NewPlayer(app.displayDevice, app.controller, clock, app.PlayerParams())
	app.scheduler = engine.NewScheduler(app.library, app.controller, player, app.Playback.SchedulerParams())

	if app.Api.Enabled {
		app.apiDevice = api.NewApi(app.Api, app.ConfigDir, app.controller, app.library)
	}

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting gifmatrix server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	s.displayDevice.Start()

	// Display startup screen
	s.show(images.Message(s.displayDevice.Bounds(), version.AppName, version.AppVersion.String()))
	time.Sleep(2 * time.Second)

	// Start library
	if err := s.library.Start(); err != nil {
		logrus.Fatalf("Unable to start library: %v\n", err)
	}

	// Start event loop
	go s.eventLoop()

	// Start buttons device
	s.buttonsDevice.Start()

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}

	// Start rotation
	ctx, cancel := context.WithCancel(context.Background())
	s.schedulerCancel = cancel
	s.schedulerDone = make(chan error, 1)
	go func() {
		s.schedulerDone <- s.scheduler.Run(ctx)
	}()
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping gifmatrix server ...")

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop rotation
	logrus.Infof("Stop scheduler")
	s.schedulerCancel()
	if err := <-s.schedulerDone; err != nil && !errors.Is(err, context.Canceled) {
		logrus.Warnf("Scheduler stopped: %v", err)
	}

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop library
	s.library.Stop()

	// Display end screen
	s.show(images.Message(s.displayDevice.Bounds(), "See you!"))

	// Stop display device
	s.displayDevice.Stop()

	// Flush state backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		err := haltCmd.Run()
		if err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
	os.Exit(0)
}

func (s *ServerApp) show(img image.Image) {
	if err := s.displayDevice.Present(img); err != nil {
		logrus.Warnf("Unable to refresh display: %v", err)
	}
}

func (s *ServerApp) applyDisplayAction(action event.DisplayAction) {
	var on bool
	switch action {
	case event.DISPLAY_ON:
		s.displayDevice.SetOn()
		on = true
	case event.DISPLAY_OFF:
		s.displayDevice.SetOff()
	case event.DISPLAY_SWITCH:
		on = s.displayDevice.Switch()
	}
	logrus.Infof("Display on: %t", on)
	s.SetDisplayOn(on)
}
