package xenv

import "github.com/caarlos0/env/v8"

// Prefix is prepended to every `env` tag.
const Prefix = "LATENCY_"

/* example
type config struct {
	Count    int           `env:"COUNT" envDefault:"100"`     // LATENCY_COUNT
	Interval time.Duration `env:"INTERVAL" envDefault:"0s"`   // LATENCY_INTERVAL
	Ifaces   []string      `env:"IFACES" envSeparator:","`    // LATENCY_IFACES
}
*/

// Load fills conf from LATENCY_* variables, honoring envDefault tags.
func Load(conf interface{}) error {
	return env.ParseWithOptions(conf, env.Options{Prefix: Prefix})
}

// LoadFrom is Load over an explicit environment, mostly for tests.
func LoadFrom(conf interface{}, environment map[string]string) error {
	return env.ParseWithOptions(conf, env.Options{Prefix: Prefix, Environment: environment})
}
