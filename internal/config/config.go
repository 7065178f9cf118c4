// Package config defines the typed configuration records described in
// spec.md §6 and loads them once, at startup, from JSON — the wire
// format spec.md mandates, not a stylistic choice, so this package uses
// encoding/json directly rather than reaching for a config library.
//
// Grounded on doismellburning-samoyed's src/config.go, which likewise
// parses a configuration file once into a typed struct
// (misc_config_s/audio_s/etc.) and rejects malformed entries before any
// network or serial I/O starts; this package follows that
// parse-once-validate-early shape, replacing Dire Wolf's line-oriented
// text format with the JSON schema spec.md §6 defines.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Protocol is one of the wire protocols an output speaks.
type Protocol string

const (
	ProtocolAdaLight Protocol = "adalight"
	ProtocolAWA      Protocol = "awa"
	ProtocolWLED     Protocol = "wled"
)

// PixelFormat mirrors internal/pixel.Format as a config-layer string so
// this package does not need to import internal/pixel just to validate
// the JSON enum.
type PixelFormat string

const (
	PixelFormatRGB         PixelFormat = "RGB"
	PixelFormatGRB         PixelFormat = "GRB"
	PixelFormatBGR         PixelFormat = "BGR"
	PixelFormatRGBW        PixelFormat = "RGBW"
	PixelFormatGRBW        PixelFormat = "GRBW"
	PixelFormatPassthrough PixelFormat = "passthrough"
)

// OPCListen is the opc.{host,port} object from spec.md §6.
type OPCListen struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// OutputConfig is one entry of the outputs array (spec.md §3/§6).
type OutputConfig struct {
	Port              string      `json:"port"`
	Protocol          Protocol    `json:"protocol"`
	HardwareType      string      `json:"hardware_type,omitempty"`
	BaudRate          int         `json:"baud_rate"`
	HandshakeBaudRate int         `json:"handshake_baud_rate,omitempty"`
	LEDCount          int         `json:"led_count"`
	OPCChannel        int         `json:"opc_channel"`
	OPCOffset         int         `json:"opc_offset"`
	PixelFormat       PixelFormat `json:"pixel_format,omitempty"`
}

// Config is the top-level JSON document (spec.md §6).
type Config struct {
	OPC       OPCListen      `json:"opc"`
	TargetFPS int            `json:"target_fps,omitempty"`
	Outputs   []OutputConfig `json:"outputs"`
}

// DefaultOPCPort is used when the config omits opc.port.
const DefaultOPCPort = 7890

// DefaultHandshakeBaudRate is used for WLED outputs that omit
// handshake_baud_rate (spec.md §3).
const DefaultHandshakeBaudRate = 115200

// Error is the "Config" error kind from spec.md §7: invalid or
// self-inconsistent configuration, fatal before startup.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "config: " + e.Msg }

func configErrorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Load reads and validates a configuration file from path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, configErrorf("opening %s: %v", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads and validates a configuration document from r, applying
// defaults and then rejecting anything self-inconsistent (spec.md §7
// Config error kind). Most callers want Parse; cmd/opcbridge calls
// ParseUnvalidated/Validate separately so internal/devprofile can fill
// in hardware_type-derived defaults between the two steps.
func Parse(r io.Reader) (*Config, error) {
	cfg, err := ParseUnvalidated(r)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseUnvalidated decodes r and applies only the top-level opc.host/
// opc.port defaults, without validating or defaulting individual
// outputs. Call Validate afterward once any external defaulting (e.g.
// internal/devprofile) has had a chance to fill in per-output fields.
func ParseUnvalidated(r io.Reader) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, configErrorf("parsing JSON: %v", err)
	}

	if cfg.OPC.Host == "" {
		cfg.OPC.Host = "0.0.0.0"
	}
	if cfg.OPC.Port == 0 {
		cfg.OPC.Port = DefaultOPCPort
	}
	if len(cfg.Outputs) == 0 {
		return nil, configErrorf("at least one output is required")
	}
	return &cfg, nil
}

// Validate applies per-output defaults and rejects anything
// self-inconsistent (spec.md §7 Config error kind).
func (cfg *Config) Validate() error {
	for i := range cfg.Outputs {
		if err := cfg.Outputs[i].applyDefaultsAndValidate(); err != nil {
			return configErrorf("output %d (%s): %v", i, cfg.Outputs[i].Port, err)
		}
	}
	return nil
}

func (o *OutputConfig) applyDefaultsAndValidate() error {
	if o.Port == "" {
		return configErrorf("port is required")
	}
	switch o.Protocol {
	case ProtocolAdaLight, ProtocolAWA, ProtocolWLED:
	default:
		return configErrorf("unknown protocol %q", o.Protocol)
	}
	if o.LEDCount < 1 {
		return configErrorf("led_count must be >= 1, got %d", o.LEDCount)
	}
	if o.OPCChannel < 0 || o.OPCChannel > 255 {
		return configErrorf("opc_channel must be 0-255, got %d", o.OPCChannel)
	}
	if o.OPCOffset < 0 {
		return configErrorf("opc_offset must be >= 0, got %d", o.OPCOffset)
	}
	if o.BaudRate <= 0 {
		return configErrorf("baud_rate must be > 0, got %d", o.BaudRate)
	}
	switch o.PixelFormat {
	case "":
		o.PixelFormat = PixelFormatRGB
	case PixelFormatRGB, PixelFormatGRB, PixelFormatBGR, PixelFormatRGBW, PixelFormatGRBW, PixelFormatPassthrough:
	default:
		return configErrorf("unknown pixel_format %q", o.PixelFormat)
	}
	if o.Protocol == ProtocolWLED && o.HandshakeBaudRate == 0 {
		o.HandshakeBaudRate = DefaultHandshakeBaudRate
	}
	return nil
}
