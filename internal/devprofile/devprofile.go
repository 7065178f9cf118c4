// Package devprofile loads an optional controller-profile defaults
// database: a YAML file mapping a free-form hardware_type identifier
// (what a discovery tool would read off a USB descriptor or a WLED JSON
// banner) to the protocol/pixel_format/baud defaults that identifier
// implies.
//
// Grounded on doismellburning-samoyed's src/deviceid.go, which loads
// tocalls.yaml at startup and maps an APRS destination-callsign prefix
// to a vendor/model pair; this package follows the same "optional file,
// search a fixed list of locations, tolerate its absence" shape but
// decodes directly into a typed slice instead of deviceid.go's
// map[string]interface{} walk, since this database's schema is simple
// and fully known up front.
package devprofile

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bbulkow/OpenPixelControlSerial/internal/config"
)

// Profile is the set of defaults one hardware_type entry supplies.
// Every field is optional in the YAML; zero values mean "no default for
// that field", and config.OutputConfig's own validation still applies
// after defaults are merged in.
type Profile struct {
	HardwareType      string             `yaml:"hardware_type"`
	Protocol          config.Protocol    `yaml:"protocol,omitempty"`
	PixelFormat       config.PixelFormat `yaml:"pixel_format,omitempty"`
	BaudRate          int                `yaml:"baud_rate,omitempty"`
	HandshakeBaudRate int                `yaml:"handshake_baud_rate,omitempty"`
}

// DB is a loaded profile database, keyed by HardwareType for lookup.
type DB struct {
	byType map[string]Profile
}

// searchLocations mirrors deviceid.go's search_locations list, scaled
// down to this project's layout.
var searchLocations = []string{
	"devprofiles.yaml",
	"data/devprofiles.yaml",
	"../data/devprofiles.yaml",
	"/usr/local/share/opcbridge/devprofiles.yaml",
	"/usr/share/opcbridge/devprofiles.yaml",
}

// Load reads path, or if path is empty, searches searchLocations the
// way deviceid_init does. A missing file (at an explicit path, or in
// every searched location) is not an error: Load returns an empty DB,
// since this database is additive convenience, never a requirement
// (SPEC_FULL.md §9.2).
func Load(path string) (*DB, error) {
	f, err := openProfile(path)
	if err != nil {
		return &DB{byType: map[string]Profile{}}, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("devprofile: reading %s: %w", f.Name(), err)
	}

	var profiles []Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("devprofile: parsing %s: %w", f.Name(), err)
	}

	db := &DB{byType: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		db.byType[p.HardwareType] = p
	}
	return db, nil
}

func openProfile(path string) (*os.File, error) {
	if path != "" {
		return os.Open(path)
	}
	var firstErr error
	for _, loc := range searchLocations {
		f, err := os.Open(loc)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// Lookup returns the profile registered for hardwareType, and ok=false
// if none is registered (including when the DB is empty).
func (db *DB) Lookup(hardwareType string) (Profile, bool) {
	if db == nil || hardwareType == "" {
		return Profile{}, false
	}
	p, ok := db.byType[hardwareType]
	return p, ok
}

// ApplyDefaults fills any zero-valued Protocol/PixelFormat/BaudRate/
// HandshakeBaudRate fields on out from the profile registered for
// out.HardwareType, leaving explicit config values untouched. It is a
// no-op if out.HardwareType has no matching profile.
func (db *DB) ApplyDefaults(out *config.OutputConfig) {
	p, ok := db.Lookup(out.HardwareType)
	if !ok {
		return
	}
	if out.Protocol == "" {
		out.Protocol = p.Protocol
	}
	if out.PixelFormat == "" {
		out.PixelFormat = p.PixelFormat
	}
	if out.BaudRate == 0 {
		out.BaudRate = p.BaudRate
	}
	if out.HandshakeBaudRate == 0 {
		out.HandshakeBaudRate = p.HandshakeBaudRate
	}
}
