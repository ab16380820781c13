package rconfig

// Embedded configuration. Populate embeddedConfigs at build time (code
// generation, or a linker-embedded asset) or manually during
// development — matching
// _examples/jangala-dev-devicecode-go/services/config/defaultconfigs.go's
// plain Go map literal.
const cfgRaptorSub000 = `{
  "vendor": "dronectl",
  "model": "raptor",
  "scpi_port": 5025,
  "logger_port": 3000,
  "cmd_port": 50051
}`

var embeddedConfigs = map[string][]byte{
	"raptor-sub000": []byte(cfgRaptorSub000),
}
