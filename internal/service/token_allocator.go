package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultAllocationAttempts bounds generate-and-probe rounds per allocation
const DefaultAllocationAttempts = 10

// ErrAllocationExhausted is returned when every candidate collided
var ErrAllocationExhausted = errors.New("token allocation exhausted")

var errCollision = errors.New("token collision")

// TokenGenerator produces a random candidate token
type TokenGenerator func() (string, error)

// ExistsFunc probes a namespace for an exact token
type ExistsFunc func(ctx context.Context, token string) (bool, error)

// TokenAllocator finds a token absent from a namespace. The probe is only a
// pre-check; the caller's insert stays the authoritative uniqueness check.
type TokenAllocator struct {
	generate    TokenGenerator
	maxAttempts int
	delay       time.Duration
}

// NewTokenAllocator creates an allocator. maxAttempts below 1 uses the default.
func NewTokenAllocator(generate TokenGenerator, maxAttempts int) *TokenAllocator {
	if maxAttempts < 1 {
		maxAttempts = DefaultAllocationAttempts
	}
	return &TokenAllocator{generate: generate, maxAttempts: maxAttempts, delay: time.Millisecond}
}

// Allocate returns the first candidate the probe reports as unused. Probe and
// generator errors abort immediately.
func (a *TokenAllocator) Allocate(ctx context.Context, exists ExistsFunc) (string, error) {
	var token string

	backoff := retry.WithMaxRetries(uint64(a.maxAttempts-1), retry.NewConstant(a.delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate, err := a.generate()
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return fmt.Errorf("probe token: %w", err)
		}
		if taken {
			return retry.RetryableError(errCollision)
		}

		token = candidate
		return nil
	})

	if errors.Is(err, errCollision) {
		return "", fmt.Errorf("%w after %d attempts", ErrAllocationExhausted, a.maxAttempts)
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// RandomHexToken returns 16 random bytes hex-encoded
func RandomHexToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomURLToken returns 24 random bytes in unpadded base64url
func RandomURLToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
