package srv

import (
	"syscall"

	"github.com/jypelle/gifmatrix/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// A skip button held this many steps halts the system.
const poweroffPressStepCount = 20

func (s *ServerApp) apiEventChannel() chan event.ApiEvent {
	if s.apiDevice == nil {
		return nil
	}
	return s.apiDevice.EventChannel()
}

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.apiEventChannel():
			switch data := ev.Data.(type) {
			case event.ApiEventDisplayData:
				s.applyDisplayAction(data.Action)
				ev.Result <- nil
			}
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d", ev.ButtonId, ev.ButtonEventType, ev.PressStepCount)
			switch ev.ButtonId {
			case event.SKIP_BUTTON:
				if ev.ButtonEventType == event.RELEASE_EVENT_TYPE && ev.PressStepCount < poweroffPressStepCount {
					logrus.Debugf("Skip current item")
					s.controller.Skip()
				} else if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == poweroffPressStepCount {
					logrus.Debugf("See you!")
					syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
				}
			case event.DISPLAY_BUTTON:
				if ev.ButtonEventType == event.RELEASE_EVENT_TYPE {
					logrus.Debugf("Switch display on/off")
					s.applyDisplayAction(event.DISPLAY_SWITCH)
				}
			}
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}
