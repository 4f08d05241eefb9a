package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/appium"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
)

// Default iOS capability values; iOS does not read these from config.
const (
	IOSAutomationName = "XCUITest"
	IOSDeviceName     = "iPhone 14"
)

// Connector opens a remote session. It returns the live remote and the
// capabilities the server matched.
type Connector func(serverURL string, caps Capabilities) (Remote, Capabilities, error)

// AppiumConnector connects with the W3C appium client.
func AppiumConnector(serverURL string, caps Capabilities) (Remote, Capabilities, error) {
	client := appium.NewClient(serverURL)
	matched, err := client.NewSession(caps)
	if err != nil {
		return nil, nil, err
	}
	return client, Capabilities(matched), nil
}

// Builder turns configuration into a started session.
type Builder struct {
	log     *logger.Logger
	connect Connector
	now     func() time.Time
}

// NewBuilder creates a builder that connects through AppiumConnector.
func NewBuilder(log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{log: log, connect: AppiumConnector, now: time.Now}
}

// WithConnector replaces the connector.
func (b *Builder) WithConnector(c Connector) *Builder {
	b.connect = c
	return b
}

// Platform resolves the configured platform, warning on unknown names.
func (b *Builder) Platform(cfg *config.Config) Platform {
	name := cfg.PlatformName()
	p, ok := ParsePlatform(name)
	if !ok {
		b.log.Warn("Unknown platform %q, defaulting to %s", name, p)
	}
	return p
}

// Capabilities builds the session-start capabilities for p from cfg.
func (b *Builder) Capabilities(p Platform, cfg *config.Config) Capabilities {
	if p == PlatformIOS {
		return b.iosCapabilities(cfg)
	}
	return b.androidCapabilities(cfg)
}

func (b *Builder) androidCapabilities(cfg *config.Config) Capabilities {
	// The configured spelling is sent as is when it names Android.
	platformName := cfg.PlatformName()
	if p, ok := ParsePlatform(platformName); !ok || p != PlatformAndroid {
		platformName = PlatformAndroid.String()
	}
	caps := Capabilities{
		"platformName":          platformName,
		"appium:automationName": cfg.AutomationName(),
	}
	if name := cfg.DeviceName(); name != "" {
		caps["appium:deviceName"] = name
	}
	if version := cfg.PlatformVersion(); version != "" {
		caps["appium:platformVersion"] = version
	}
	b.setApp(caps, cfg)

	caps["appium:autoGrantPermissions"] = cfg.AutoGrantPermissions()
	caps["appium:noReset"] = cfg.NoReset()
	caps["appium:fullReset"] = cfg.FullReset()
	caps["appium:newCommandTimeout"] = cfg.NewCommandTimeout()
	return caps
}

func (b *Builder) iosCapabilities(cfg *config.Config) Capabilities {
	caps := Capabilities{
		"platformName":          PlatformIOS.String(),
		"appium:automationName": IOSAutomationName,
		"appium:deviceName":     IOSDeviceName,
	}
	if name := cfg.DeviceName(); name != "" {
		caps["appium:deviceName"] = name
	}
	if version := cfg.PlatformVersion(); version != "" {
		caps["appium:platformVersion"] = version
	}
	b.setApp(caps, cfg)

	caps["appium:autoAcceptAlerts"] = true
	caps["appium:noReset"] = cfg.NoReset()
	caps["appium:fullReset"] = cfg.FullReset()
	caps["appium:newCommandTimeout"] = cfg.NewCommandTimeout()
	return caps
}

// setApp adds appium:app when the binary exists. A missing binary is only a
// warning; the server rejects the session with its own error.
func (b *Builder) setApp(caps Capabilities, cfg *config.Config) {
	path := cfg.AppPath()
	if _, err := os.Stat(path); err != nil {
		b.log.Warn("App file not found at: %s", path)
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	caps["appium:app"] = path
	b.log.Info("Using app: %s", path)
}

// Build creates a session for owner on the configured platform.
func (b *Builder) Build(cfg *config.Config, owner string) (*Session, error) {
	return b.BuildPlatform(b.Platform(cfg), cfg, owner)
}

// BuildPlatform creates a session for owner on platform p. Failures are
// returned as core.ErrSessionCreation and never retried.
func (b *Builder) BuildPlatform(p Platform, cfg *config.Config, owner string) (*Session, error) {
	serverURL := cfg.AppiumURL()
	details := map[string]interface{}{"url": serverURL, "platform": p.String()}

	b.log.Info("Creating %s driver...", p)
	caps := b.Capabilities(p, cfg)

	if err := appium.ValidateURL(serverURL); err != nil {
		return nil, core.ErrSessionCreation.WithDetails(details).WithCause(err)
	}

	remote, _, err := b.connect(serverURL, caps)
	if err != nil {
		if !appium.IsWebDriverError(err) {
			err = core.ErrServerUnreachable.WithCause(err)
		}
		return nil, core.ErrSessionCreation.WithDetails(details).WithCause(err)
	}

	implicit := cfg.ImplicitWait()
	if err := remote.SetImplicitWait(implicit); err != nil {
		_ = remote.DeleteSession()
		return nil, core.ErrSessionCreation.
			WithMessage("failed to apply implicit wait").
			WithDetails(details).
			WithCause(err)
	}

	s := &Session{
		id:           remote.SessionID(),
		owner:        owner,
		platform:     p,
		caps:         caps.Clone(),
		implicitWait: implicit,
		created:      b.now(),
		remote:       remote,
	}
	b.log.Info("%s driver created successfully", p)
	return s, nil
}
