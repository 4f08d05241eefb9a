package session

import "strings"

// Platform is the closed set of target platforms.
type Platform int

const (
	PlatformAndroid Platform = iota
	PlatformIOS
)

// String returns the platformName capability value.
func (p Platform) String() string {
	switch p {
	case PlatformIOS:
		return "iOS"
	default:
		return "Android"
	}
}

// ParsePlatform parses a platform name case-insensitively.
// Unknown values return PlatformAndroid and ok=false.
func ParsePlatform(s string) (p Platform, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return PlatformAndroid, true
	case "ios":
		return PlatformIOS, true
	default:
		return PlatformAndroid, false
	}
}

// Capabilities is a W3C capability set.
type Capabilities map[string]interface{}

// Clone returns a shallow copy.
func (c Capabilities) Clone() Capabilities {
	out := make(Capabilities, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String returns a string capability, or "" when absent or not a string.
func (c Capabilities) String(key string) string {
	s, _ := c[key].(string)
	return s
}
