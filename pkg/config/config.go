// Package config handles configuration for mobile-harness.
//
// The configuration is a flat key/value store (config.yaml) read once at
// process start. Every accessor resolves a missing key to its documented
// default. The store is mutated only by Set before the run starts; after
// that it is shared read-only across test workers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/mobile-harness/pkg/core"
)

// Configuration keys.
const (
	KeyAppiumURL            = "appium.url"
	KeyPlatformName         = "platform.name"
	KeyAutomationName       = "automation.name"
	KeyDeviceName           = "device.name"
	KeyPlatformVersion      = "platform.version"
	KeyAppPath              = "app.path"
	KeyImplicitWait         = "implicit.wait"
	KeyExplicitWait         = "explicit.wait"
	KeyPollInterval         = "poll.interval"
	KeySettleDelay          = "settle.delay"
	KeyLoginDelay           = "login.delay"
	KeySaveDelay            = "save.delay"
	KeyNewCommandTimeout    = "new.command.timeout"
	KeyAutoGrantPermissions = "auto.grant.permissions"
	KeyNoReset              = "no.reset"
	KeyFullReset            = "full.reset"
	KeyLogDir               = "log.dir"
	KeyLogKeep              = "log.keep"
	KeyScreenshotDir        = "screenshot.dir"
)

// Defaults.
const (
	DefaultAppiumURL         = "http://127.0.0.1:4723"
	DefaultPlatformName      = "Android"
	DefaultAutomationName    = "UiAutomator2"
	DefaultAppPath           = "apps/trust_test.apk"
	DefaultImplicitWait      = 10   // seconds
	DefaultExplicitWait      = 15   // seconds
	DefaultPollInterval      = 500  // milliseconds
	DefaultSettleDelay       = 1000 // milliseconds
	DefaultLoginDelay        = 10000
	DefaultSaveDelay         = 500
	DefaultNewCommandTimeout = 300  // seconds
	DefaultLogDir            = "logs"
	DefaultLogKeep           = 10
	DefaultScreenshotDir     = "screenshots"
)

var intKeys = []string{KeyImplicitWait, KeyExplicitWait, KeyPollInterval, KeySettleDelay, KeyLoginDelay, KeySaveDelay, KeyNewCommandTimeout, KeyLogKeep}
var boolKeys = []string{KeyAutoGrantPermissions, KeyNoReset, KeyFullReset}

// Config is the flat key/value configuration.
type Config struct {
	Path    string // File the values were loaded from (empty for New)
	BaseDir string // Relative paths resolve against this directory

	values   map[string]string
	warnings []string
}

// New returns a config holding the given values. Used by tests and callers
// that assemble configuration without a file.
func New(values map[string]string) *Config {
	c := &Config{
		BaseDir: GetHome(),
		values:  make(map[string]string, len(values)),
	}
	for k, v := range values {
		c.values[k] = v
	}
	c.validate()
	return c
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage("failed to read configuration file").
			WithDetails(map[string]interface{}{"path": path}).
			WithCause(err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage("failed to parse configuration file").
			WithDetails(map[string]interface{}{"path": path}).
			WithCause(err)
	}

	values := make(map[string]string)
	flatten("", raw, values)

	cfg := New(values)
	cfg.Path = path
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// Absence of both is a configuration error.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}
	return nil, core.ErrInvalidConfig.
		WithMessage("no config.yaml or config.yml found").
		WithDetails(map[string]interface{}{"dir": dir})
}

// flatten turns nested mappings into dotted keys: {appium: {url: x}} -> appium.url=x.
func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func (c *Config) validate() {
	c.warnings = nil
	for _, k := range intKeys {
		if v, ok := c.lookup(k); ok {
			if _, err := strconv.Atoi(v); err != nil {
				c.warnings = append(c.warnings, fmt.Sprintf("property %s=%q is not an integer, using default", k, v))
			}
		}
	}
	for _, k := range boolKeys {
		if v, ok := c.lookup(k); ok {
			if _, err := strconv.ParseBool(v); err != nil {
				c.warnings = append(c.warnings, fmt.Sprintf("property %s=%q is not a boolean, using default", k, v))
			}
		}
	}
	sort.Strings(c.warnings)
}

// Warnings returns problems found while loading (unparsable values that
// fell back to defaults). Callers log them; they are never fatal.
func (c *Config) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

// Set overrides a key. Only valid before the run starts.
func (c *Config) Set(key, value string) {
	c.values[key] = value
	c.validate()
}

// Snapshot returns an independent copy of the configuration.
func (c *Config) Snapshot() *Config {
	cp := &Config{
		Path:     c.Path,
		BaseDir:  c.BaseDir,
		values:   make(map[string]string, len(c.values)),
		warnings: append([]string(nil), c.warnings...),
	}
	for k, v := range c.values {
		cp.values[k] = v
	}
	return cp
}

// Keys returns all explicitly configured keys, sorted.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) lookup(key string) (string, bool) {
	v, ok := c.values[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Get returns the raw value for key, or "" when unset.
func (c *Config) Get(key string) string {
	v, _ := c.lookup(key)
	return v
}

// GetDefault returns the value for key or def when unset.
func (c *Config) GetDefault(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

func (c *Config) getInt(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (c *Config) getBool(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// AppiumURL returns the remote automation server URL.
func (c *Config) AppiumURL() string { return c.GetDefault(KeyAppiumURL, DefaultAppiumURL) }

// PlatformName returns the configured platform string (unvalidated).
func (c *Config) PlatformName() string { return c.GetDefault(KeyPlatformName, DefaultPlatformName) }

// AutomationName returns the configured automation engine.
func (c *Config) AutomationName() string {
	return c.GetDefault(KeyAutomationName, DefaultAutomationName)
}

// HasAutomationName reports whether automation.name was set explicitly.
func (c *Config) HasAutomationName() bool {
	_, ok := c.lookup(KeyAutomationName)
	return ok
}

// DeviceName returns the configured device name, "" when unset.
func (c *Config) DeviceName() string { return c.Get(KeyDeviceName) }

// PlatformVersion returns the configured OS version, "" when unset.
func (c *Config) PlatformVersion() string { return c.Get(KeyPlatformVersion) }

// AppPath returns the app binary path resolved against BaseDir.
func (c *Config) AppPath() string {
	return ResolvePath(c.BaseDir, c.GetDefault(KeyAppPath, DefaultAppPath))
}

// ImplicitWait returns the session implicit wait.
func (c *Config) ImplicitWait() time.Duration {
	return time.Duration(c.getInt(KeyImplicitWait, DefaultImplicitWait)) * time.Second
}

// ExplicitWait returns the default timeout for strict waits.
func (c *Config) ExplicitWait() time.Duration {
	return time.Duration(c.getInt(KeyExplicitWait, DefaultExplicitWait)) * time.Second
}

// PollInterval returns the default wait poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.getInt(KeyPollInterval, DefaultPollInterval)) * time.Millisecond
}

// SettleDelay returns the fixed delay navigation edges wait after acting.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.getInt(KeySettleDelay, DefaultSettleDelay)) * time.Millisecond
}

// LoginDelay returns how long the app is given to finish logging in.
func (c *Config) LoginDelay() time.Duration {
	return time.Duration(c.getInt(KeyLoginDelay, DefaultLoginDelay)) * time.Millisecond
}

// SaveDelay returns how long the app is given to render saved switch state.
func (c *Config) SaveDelay() time.Duration {
	return time.Duration(c.getInt(KeySaveDelay, DefaultSaveDelay)) * time.Millisecond
}

// NewCommandTimeout returns the server-side idle timeout in seconds.
func (c *Config) NewCommandTimeout() int {
	return c.getInt(KeyNewCommandTimeout, DefaultNewCommandTimeout)
}

// AutoGrantPermissions reports whether Android runtime permissions are granted on install.
func (c *Config) AutoGrantPermissions() bool { return c.getBool(KeyAutoGrantPermissions, true) }

// NoReset reports the no-reset policy.
func (c *Config) NoReset() bool { return c.getBool(KeyNoReset, false) }

// FullReset reports the full-reset policy.
func (c *Config) FullReset() bool { return c.getBool(KeyFullReset, false) }

// LogDir returns the log directory resolved against BaseDir.
func (c *Config) LogDir() string {
	return ResolvePath(c.BaseDir, c.GetDefault(KeyLogDir, DefaultLogDir))
}

// LogKeep returns how many run log files rotation keeps.
func (c *Config) LogKeep() int { return c.getInt(KeyLogKeep, DefaultLogKeep) }

// ScreenshotDir returns the evidence directory resolved against BaseDir.
func (c *Config) ScreenshotDir() string {
	return ResolvePath(c.BaseDir, c.GetDefault(KeyScreenshotDir, DefaultScreenshotDir))
}
