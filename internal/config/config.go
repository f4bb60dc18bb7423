// Package config loads the proxy's settings from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Settings are the proxy's tunables, read from WEBPTY_PROXY_* environment
// variables. Non-positive sizes fall back to the defaults.
//
// The field names map to variables via split_words only; a name given in
// an envconfig tag would also be consulted without the prefix, letting
// ambient variables like TERM override the defaults.
type Settings struct {
	ReadBufferSize int    `split_words:"true" default:"8192"`
	Term           string `split_words:"true" default:"xterm-256color"`
	Cols           int    `split_words:"true" default:"80"`
	Rows           int    `split_words:"true" default:"24"`
	LogLevel       string `split_words:"true" default:"info"`
}

// Load reads settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process("webpty_proxy", &s); err != nil {
		return Settings{}, fmt.Errorf("read environment: %w", err)
	}
	if s.ReadBufferSize <= 0 {
		s.ReadBufferSize = 8192
	}
	if s.Cols <= 0 {
		s.Cols = 80
	}
	if s.Rows <= 0 {
		s.Rows = 24
	}
	return s, nil
}
