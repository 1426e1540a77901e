package reference

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"affiliate/kit/errs"
)

const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var ErrInvalidConfig = errors.New("reference: invalid generator config")

// AvailabilityFunc reports whether candidate is still free in storage.
type AvailabilityFunc func(ctx context.Context, candidate string) (bool, error)

type Generator struct {
	Length      int
	MaxAttempts int
	Alphabet    string
}

func NewGenerator(length, maxAttempts int) *Generator {
	return &Generator{Length: length, MaxAttempts: maxAttempts, Alphabet: DefaultAlphabet}
}

// Generate draws random candidates until isAvailable accepts one or the
// attempt budget runs out. An error from isAvailable aborts the loop.
func (g *Generator) Generate(ctx context.Context, isAvailable AvailabilityFunc) (string, error) {
	alphabet := g.Alphabet
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	if g.Length <= 0 || g.MaxAttempts <= 0 || len(alphabet) > 256 || isAvailable == nil {
		return "", ErrInvalidConfig
	}

	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := randomString(g.Length, alphabet)
		if err != nil {
			return "", err
		}
		ok, err := isAvailable(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("reference: availability check: %w", err)
		}
		if ok {
			return candidate, nil
		}
	}
	return "", errs.ErrReferenceGenerationExhausted.WithMessage(fmt.Sprintf("no free reference after %d attempts", g.MaxAttempts))
}

// Generate is a shorthand for a one-off generator over DefaultAlphabet.
func Generate(ctx context.Context, length, maxAttempts int, isAvailable AvailabilityFunc) (string, error) {
	return NewGenerator(length, maxAttempts).Generate(ctx, isAvailable)
}

func randomString(length int, alphabet string) (string, error) {
	return drawString(rand.Reader, length, alphabet)
}

// drawString maps random bytes onto alphabet by rejection sampling. Bytes at
// or above the largest multiple of len(alphabet) are discarded so every
// symbol is equally likely.
func drawString(src io.Reader, length int, alphabet string) (string, error) {
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(src, buf[:length-len(out)]); err != nil {
			return "", err
		}
		for _, b := range buf[:length-len(out)] {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
		}
	}
	return string(out), nil
}
