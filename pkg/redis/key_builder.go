package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "staging":
		prefix = "staging"
	case "test":
		prefix = "test"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyRateLimit is the fixed-window counter key for a limiter scope and subject
func (kb *KeyBuilder) KeyRateLimit(scope, subject string) string {
	return kb.BuildKey(fmt.Sprintf(KeyRateLimit, scope, subject))
}

// KeyQRCodeLanding caches the public landing payload of a template QR code
func (kb *KeyBuilder) KeyQRCodeLanding(code string) string {
	return kb.BuildKey(fmt.Sprintf(KeyQRCodeLanding, code))
}
