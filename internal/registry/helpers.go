package registry

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	identityMaxLength      = 64
	randomIDSuffixLength   = 8
	randomIDSuffixFallback = "abcdefgh"
)

var (
	identityPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)
	nonAlphanumericExpr = regexp.MustCompile(`[^a-z0-9]+`)
)

// GeneratePluginIdentity converts a plugin binary path into a sanitized
// identity name, used when a `plugin add` registration doesn't yet know
// the name the plugin reports over its Hello handshake.
func GeneratePluginIdentity(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimPrefix(base, "nu_plugin_")

	id := SanitizeFilename(base)
	if id == "" {
		id = fmt.Sprintf("plugin-%s", randomIDSuffix(randomIDSuffixLength))
	}

	if len(id) > identityMaxLength {
		id = trimToLength(id, identityMaxLength)
	}

	if id == "" {
		id = fmt.Sprintf("plugin-%s", randomIDSuffix(randomIDSuffixLength))
	}

	return id
}

// ValidateIdentity ensures the provided identity matches the allowed pattern.
func ValidateIdentity(id string) error {
	if id == "" {
		return fmt.Errorf("plugin identity cannot be empty")
	}

	if len(id) > identityMaxLength {
		return fmt.Errorf("plugin identity %q is too long: maximum length is %d characters", id, identityMaxLength)
	}

	if !identityPattern.MatchString(id) {
		return fmt.Errorf("invalid plugin identity %q: must match %s", id, identityPattern.String())
	}

	return nil
}

// SanitizeFilename normalizes a filename into an identifier-friendly format.
func SanitizeFilename(name string) string {
	lowered := strings.ToLower(name)
	sanitized := nonAlphanumericExpr.ReplaceAllString(lowered, "-")
	sanitized = strings.Trim(sanitized, "-")

	if len(sanitized) > identityMaxLength {
		sanitized = trimToLength(sanitized, identityMaxLength)
	}

	return sanitized
}

func randomIDSuffix(length int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	if length <= 0 {
		return ""
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return randomIDSuffixFallback
	}

	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}

	return string(buf)
}

func trimToLength(value string, length int) string {
	if len(value) <= length {
		return strings.Trim(value, "-")
	}

	trimmed := value[:length]
	return strings.Trim(trimmed, "-")
}
