package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultHostsFile    = "hosts.json"
	DefaultCacheFile    = ".entrydns-cachedip"
	DefaultIPServiceURL = "https://api.ipify.org?format=json"
	DefaultUpdateURL    = "https://entrydns.net/records/modify/"
	DefaultHTTPTimeout  = 15 * time.Second
)

// Settings holds file locations, service endpoints and logging verbosity.
type Settings struct {
	HostsPath    string
	CachePath    string
	IPServiceURL string
	UpdateURL    string
	HTTPTimeout  time.Duration
	LogLevel     int
}

// LoadSettings resolves settings relative to the directory of the running
// executable, so hosts.json and the cache file live next to the binary
// unless overridden by ENTRYDNS_* environment variables.
func LoadSettings() (*Settings, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, &Error{Kind: KindSettings, Err: fmt.Errorf("locating executable: %w", err)}
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return LoadSettingsFromDir(filepath.Dir(exe))
}

// LoadSettingsFromDir resolves settings with dir as the default location of
// the hosts and cache files.
func LoadSettingsFromDir(dir string) (*Settings, error) {
	s := &Settings{
		HostsPath:    env("ENTRYDNS_HOSTS_PATH", filepath.Join(dir, DefaultHostsFile)),
		CachePath:    env("ENTRYDNS_CACHE_PATH", filepath.Join(dir, DefaultCacheFile)),
		IPServiceURL: env("ENTRYDNS_IP_SERVICE_URL", DefaultIPServiceURL),
		UpdateURL:    env("ENTRYDNS_UPDATE_URL", DefaultUpdateURL),
		HTTPTimeout:  DefaultHTTPTimeout,
	}

	if v := env("ENTRYDNS_HTTP_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, &Error{Kind: KindSettings, Key: "ENTRYDNS_HTTP_TIMEOUT", Err: err}
		}
		if d <= 0 {
			return nil, &Error{Kind: KindSettings, Key: "ENTRYDNS_HTTP_TIMEOUT", Err: fmt.Errorf("must be positive, got %s", d)}
		}
		s.HTTPTimeout = d
	}

	// Unparseable levels fall back to 0.
	if lvl, err := strconv.Atoi(os.Getenv("LOG_LEVEL")); err == nil && lvl > 0 {
		s.LogLevel = lvl
	}

	return s, nil
}

// env returns the variable with ${VAR} references expanded, or def when it is
// unset or empty.
func env(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return os.ExpandEnv(v)
}
