package config

import (
	_ "embed"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/jypelle/gifmatrix/internal/srv/engine"
	"gopkg.in/yaml.v3"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	LibraryFolder string        `yaml:"library_folder"`
	Display       DisplayParam  `yaml:"display"`
	Playback      PlaybackParam `yaml:"playback"`
	Clock         ClockParam    `yaml:"clock"`
	Api           ApiParam      `yaml:"api"`
	Buttons       ButtonsParam  `yaml:"buttons"`
}

type DisplayParam struct {
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Rotated  bool `yaml:"rotated"`
	Contrast int  `yaml:"contrast"`
}

// Durations are expressed in milliseconds.
type PlaybackParam struct {
	DefaultFrameDuration   int64 `yaml:"default_frame_duration"`
	ForcedLoops            int   `yaml:"forced_loops"`
	ShortSequenceThreshold int   `yaml:"short_sequence_threshold"`
	ShortSequenceBump      int   `yaml:"short_sequence_bump"`
	EmptyLibraryBackoff    int64 `yaml:"empty_library_backoff"`
	BlankDelay             int64 `yaml:"blank_delay"`
}

type ClockParam struct {
	Style        string  `yaml:"style"`
	Interval     int64   `yaml:"interval"`
	Tick         int64   `yaml:"tick"`
	DigitalTick  int64   `yaml:"digital_tick"`
	Amplitude    float64 `yaml:"amplitude"`
	AngularSpeed float64 `yaml:"angular_speed"`
	PhaseStep    int     `yaml:"phase_step"`
}

type ApiParam struct {
	Enabled       bool     `yaml:"enabled"`
	Port          int64    `yaml:"port"`
	Ssl           bool     `yaml:"ssl"`
	MaxUploadSize int64    `yaml:"max_upload_size"`
	Hostnames     []string `yaml:"hostnames"`
}

type ButtonsParam struct {
	Enabled    bool   `yaml:"enabled"`
	SkipPin    string `yaml:"skip_pin"`
	DisplayPin string `yaml:"display_pin"`
}

// ParseServerParam reads raw on top of the default parameters and validates the result.
func ParseServerParam(raw []byte) (*ServerParam, error) {
	param := &ServerParam{}
	if err := yaml.Unmarshal(ParamDefaultFile, param); err != nil {
		return nil, fmt.Errorf("unable to interpret default param file: %w", err)
	}
	if err := yaml.Unmarshal(raw, param); err != nil {
		return nil, fmt.Errorf("unable to interpret param file: %w", err)
	}
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return param, nil
}

func (p *ServerParam) Validate() error {
	switch {
	case p.LibraryFolder == "":
		return fmt.Errorf("library_folder is required")
	case p.Display.Width <= 0 || p.Display.Height <= 0:
		return fmt.Errorf("invalid display size %dx%d", p.Display.Width, p.Display.Height)
	case p.Display.Contrast < 0 || p.Display.Contrast > 255:
		return fmt.Errorf("display contrast must be between 0 and 255")
	case p.Playback.DefaultFrameDuration <= 0:
		return fmt.Errorf("playback default_frame_duration must be positive")
	case p.Playback.ForcedLoops < 1:
		return fmt.Errorf("playback forced_loops must be at least 1")
	case p.Playback.ShortSequenceThreshold < 1:
		return fmt.Errorf("playback short_sequence_threshold must be at least 1")
	case p.Playback.ShortSequenceBump < 1:
		return fmt.Errorf("playback short_sequence_bump must be at least 1")
	case p.Playback.EmptyLibraryBackoff <= 0 || p.Playback.BlankDelay < 0:
		return fmt.Errorf("invalid playback delays")
	case p.Clock.Style != string(engine.ClockStyleWavy) && p.Clock.Style != string(engine.ClockStyleDigital):
		return fmt.Errorf("unknown clock style %q", p.Clock.Style)
	case p.Clock.Interval <= 0 || p.Clock.Tick <= 0 || p.Clock.DigitalTick <= 0:
		return fmt.Errorf("clock interval and ticks must be positive")
	case p.Api.Enabled && (p.Api.Port <= 0 || p.Api.Port > 65535):
		return fmt.Errorf("invalid api port %d", p.Api.Port)
	case p.Api.MaxUploadSize <= 0:
		return fmt.Errorf("api max_upload_size must be positive")
	}
	if p.Api.Ssl {
		if len(p.Api.Hostnames) == 0 {
			return fmt.Errorf("api hostnames are required when ssl is enabled")
		}
		for _, hostname := range p.Api.Hostnames {
			if strings.TrimSpace(hostname) == "" {
				return fmt.Errorf("api hostnames must not be empty")
			}
		}
	}
	return nil
}

func (p DisplayParam) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

func (p PlaybackParam) LoopPolicy() engine.LoopPolicy {
	return engine.LoopPolicy{
		DefaultFrameDuration:   time.Duration(p.DefaultFrameDuration) * time.Millisecond,
		ForcedLoops:            p.ForcedLoops,
		ShortSequenceThreshold: p.ShortSequenceThreshold,
		ShortSequenceBump:      p.ShortSequenceBump,
	}
}

func (p PlaybackParam) SchedulerParams() engine.SchedulerParams {
	return engine.SchedulerParams{
		EmptyLibraryBackoff: time.Duration(p.EmptyLibraryBackoff) * time.Millisecond,
		BlankDelay:          time.Duration(p.BlankDelay) * time.Millisecond,
	}
}

func (p ClockParam) ClockParams() engine.ClockParams {
	return engine.ClockParams{
		Style:        engine.ClockStyle(p.Style),
		Amplitude:    p.Amplitude,
		AngularSpeed: p.AngularSpeed,
		PhaseStep:    p.PhaseStep,
	}
}

// TickDuration is the redraw period of the configured clock style.
func (p ClockParam) TickDuration() time.Duration {
	if engine.ClockStyle(p.Style) == engine.ClockStyleDigital {
		return time.Duration(p.DigitalTick) * time.Millisecond
	}
	return time.Duration(p.Tick) * time.Millisecond
}

func (p *ServerParam) PlayerParams() engine.PlayerParams {
	return engine.PlayerParams{
		Policy:        p.Playback.LoopPolicy(),
		ClockInterval: time.Duration(p.Clock.Interval) * time.Millisecond,
		ClockTick:     p.Clock.TickDuration(),
	}
}
