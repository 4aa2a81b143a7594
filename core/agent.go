package core

import (
	"context"
	"fmt"
)

// Personality is the closed set of personality tags an agent can carry.
type Personality string

const (
	PersonalityLogicalAnalytical  Personality = "logical_analytical"
	PersonalityCreativeInnovative Personality = "creative_innovative"
	PersonalityVersatileBalanced  Personality = "versatile_balanced"
	PersonalityPrivacyFocused     Personality = "privacy_focused"
	PersonalityVisualArtist       Personality = "visual_artist"
)

// DefaultGlyph is shown for personalities without a dedicated glyph.
const DefaultGlyph = "🤖"

var glyphs = map[Personality]string{
	PersonalityLogicalAnalytical:  "🧠",
	PersonalityCreativeInnovative: "🎨",
	PersonalityVersatileBalanced:  "⚖️",
	PersonalityPrivacyFocused:     "🔒",
	PersonalityVisualArtist:       "🖼️",
}

// Personalities lists every valid personality in declaration order.
func Personalities() []Personality {
	return []Personality{
		PersonalityLogicalAnalytical,
		PersonalityCreativeInnovative,
		PersonalityVersatileBalanced,
		PersonalityPrivacyFocused,
		PersonalityVisualArtist,
	}
}

// ParsePersonality converts a tag into a Personality.
func ParsePersonality(s string) (Personality, error) {
	p := Personality(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown personality %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the known personalities.
func (p Personality) Valid() bool {
	_, ok := glyphs[p]
	return ok
}

// Glyph returns the presentation glyph for p, or DefaultGlyph.
func (p Personality) Glyph() string {
	if g, ok := glyphs[p]; ok {
		return g
	}
	return DefaultGlyph
}

// Identity is a static registry entry describing one agent.
type Identity struct {
	ID          string      `json:"id"`
	Personality Personality `json:"personality"`
}

// Glyph returns the presentation glyph for the identity's personality.
func (i Identity) Glyph() string { return i.Personality.Glyph() }

// Provider is one independently invokable response generator.
//
// Implementations must:
//   - Return exactly one Outcome per call, tagged with their own identity
//   - Respect context cancellation and deadlines
//   - Hold no mutable state shared with other providers
type Provider interface {
	Identity() Identity
	Respond(ctx context.Context, prompt, context string) Outcome
}

// ImageGenerator is implemented by providers that can render images. The
// returned Outcome carries ImageData on success.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, context string) Outcome
}

// Sender is the outbound half of a duplex channel. Each call delivers one
// formatted line.
type Sender interface {
	Send(ctx context.Context, line string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, line string) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, line string) error { return f(ctx, line) }
