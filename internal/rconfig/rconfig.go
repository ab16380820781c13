// Package rconfig resolves the compiled-in device identity and port
// configuration for a raptor core instance.
//
// Grounded on
// _examples/jangala-dev-devicecode-go/services/config/{config.go,
// defaultconfigs.go}: configuration lives in flash (a Go map literal),
// not on a filesystem (spec.md's Non-goals exclude persisted config),
// and is decoded with the teacher's no-alloc JSON reader,
// github.com/andreyvit/tinyjson, via its Raw/Value accessor — the only
// shape the teacher's own usage demonstrates.
package rconfig

import (
	"errors"

	"github.com/andreyvit/tinyjson"

	"raptor/x/strx"
)

// Config is the resolved, typed configuration for one device identity.
type Config struct {
	DeviceID   string
	Vendor     string
	Model      string
	ScpiPort   int
	LoggerPort int
	CmdPort    int
}

const (
	defaultScpiPort   = 5025
	defaultLoggerPort = 3000
	defaultCmdPort    = 50051
)

// EmbeddedConfigLookup allows overriding config resolution (tests,
// alternate build targets), matching the teacher's injectable lookup
// var of the same shape.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Load decodes the embedded JSON for device, falling back to the fixed
// SCPI/logger/command ports when a device's config omits them.
func Load(device string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Config{}, errors.New("rconfig: no embedded config for device: " + device)
	}

	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return Config{}, errors.New("rconfig: embedded config is not a JSON object")
	}

	cfg := Config{
		DeviceID:   device,
		Vendor:     "dronectl",
		Model:      "raptor",
		ScpiPort:   defaultScpiPort,
		LoggerPort: defaultLoggerPort,
		CmdPort:    defaultCmdPort,
	}
	vendor, _ := m["vendor"].(string)
	cfg.Vendor = strx.Coalesce(vendor, cfg.Vendor)
	model, _ := m["model"].(string)
	cfg.Model = strx.Coalesce(model, cfg.Model)
	if v, ok := m["scpi_port"].(float64); ok && v > 0 {
		cfg.ScpiPort = int(v)
	}
	if v, ok := m["logger_port"].(float64); ok && v > 0 {
		cfg.LoggerPort = int(v)
	}
	if v, ok := m["cmd_port"].(float64); ok && v > 0 {
		cfg.CmdPort = int(v)
	}
	return cfg, nil
}

// IdentString is the IEEE-488.2 *IDN? response body: "vendor, model,
// <fwVersion>\n", with fwVersion inserted exactly as given, per
// _examples/original_source/core/lib/scpi/commands.c's idn constant.
func (c Config) IdentString(fwVersion string) string {
	return c.Vendor + ", " + c.Model + ", " + fwVersion + "\n"
}
