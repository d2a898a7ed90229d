// Package generator asks external language models for fresh challenge texts.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConfigured = errors.New("generator not configured")
	ErrEmptyResponse = errors.New("generator returned no text")
)

type Params struct {
	Temperature float32
	MaxTokens   int
}

// DefaultParams are the sampling parameters used for challenge texts.
func DefaultParams() Params {
	return Params{Temperature: 0.7, MaxTokens: 100}
}

type Generator interface {
	Generate(ctx context.Context, prompt string, p Params) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, prompt string, p Params) (string, error)

func (f Func) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	return f(ctx, prompt, p)
}

// Chain tries each generator in order and returns the first usable text.
type Chain []Generator

func (c Chain) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if len(c) == 0 {
		return "", ErrNotConfigured
	}
	var errs []error
	for i, g := range c {
		text, err := g.Generate(ctx, prompt, p)
		if err == nil {
			if text = Clean(text); text != "" {
				return text, nil
			}
			err = ErrEmptyResponse
		}
		errs = append(errs, fmt.Errorf("generator %d: %w", i, err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}

// Clean trims the text and strips one pair of matching wrapping quotes.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if n := len(text); n >= 2 && isQuote(text[0]) && text[n-1] == text[0] {
		text = text[1 : n-1]
	}
	return strings.TrimSpace(text)
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}
