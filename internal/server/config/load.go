package config

import (
	"github.com/yndnr/quickvote-go/internal/infra/confloader"
)

// Loader reads ServerConfig from defaults, an optional YAML file and the
// QUICKVOTE_* environment.
type Loader struct {
	inner *confloader.Loader
}

// NewLoader creates a loader for path. An empty path skips the file.
func NewLoader(path string) *Loader {
	return &Loader{
		inner: confloader.NewLoader(
			confloader.WithDefaults(DefaultMap()),
			confloader.WithConfigFile(path),
		),
	}
}

// Load returns a fresh ServerConfig. Call Verify before using it.
func (l *Loader) Load() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := l.inner.Reload(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FilePath returns the config file path, or "" when none is set.
func (l *Loader) FilePath() string {
	return l.inner.FilePath()
}

// Load is a shorthand for NewLoader(path).Load().
func Load(path string) (*ServerConfig, error) {
	return NewLoader(path).Load()
}
