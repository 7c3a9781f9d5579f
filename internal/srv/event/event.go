package event

// Buttons
type ButtonId int

const (
	SKIP_BUTTON ButtonId = iota
	DISPLAY_BUTTON
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type DisplayAction string

const (
	DISPLAY_ON     DisplayAction = "on"
	DISPLAY_OFF    DisplayAction = "off"
	DISPLAY_SWITCH DisplayAction = "switch"
)

type ApiEventDisplayData struct {
	Action DisplayAction
}
