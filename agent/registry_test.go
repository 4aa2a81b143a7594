package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(
		NewStatic(ident("OpenAI"), "a"),
		NewStatic(core.Identity{ID: "Gemini", Personality: core.PersonalityVersatileBalanced}, "b"),
		NewVisualAgent("Stability", &model.MockImageModel{}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
	ids := []string{}
	for _, id := range r.Identities() {
		ids = append(ids, id.ID)
	}
	assert.Equal(t, []string{"OpenAI", "Gemini", "Stability"}, ids)

	p, ok := r.Lookup("gemini")
	require.True(t, ok)
	assert.Equal(t, "Gemini", p.Identity().ID)

	_, ok = r.Lookup("nope")
	assert.False(t, ok)

	img, ok := r.ImageGenerator()
	require.True(t, ok)
	assert.Equal(t, "Stability", img.Identity().ID)
}

func TestNewRegistry_Rejects(t *testing.T) {
	_, err := NewRegistry(NewStatic(ident("A"), "x"), NewStatic(ident("a"), "y"))
	assert.Error(t, err, "duplicate ids are compared case-insensitively")

	_, err = NewRegistry(NewStatic(ident(" "), "x"))
	assert.Error(t, err)

	_, err = NewRegistry(NewStatic(core.Identity{ID: "A", Personality: "grumpy"}, "x"))
	assert.Error(t, err)
}

func TestRegistry_ProvidersIsCopy(t *testing.T) {
	r, err := NewRegistry(NewStatic(ident("A"), "x"))
	require.NoError(t, err)

	ps := r.Providers()
	ps[0] = nil
	assert.NotNil(t, r.Providers()[0])
}

func TestUnavailable(t *testing.T) {
	u := NewUnavailable(ident("OpenAI"), &core.ConfigurationError{AgentID: "OpenAI", Setting: "api_key"})

	assert.False(t, IsAvailable(u))
	assert.True(t, IsAvailable(NewStatic(ident("B"), "x")))

	out := u.Respond(context.Background(), "hi", "")
	require.True(t, out.IsFailure())
	assert.Equal(t, core.FailureConfiguration, out.Err.Kind)
	assert.Equal(t, "OpenAI", out.AgentID)

	_, isImage := u.(core.ImageGenerator)
	assert.False(t, isImage)

	v := NewUnavailable(core.Identity{ID: "Stability", Personality: core.PersonalityVisualArtist}, errors.New("no key"))
	gen, isImage := v.(core.ImageGenerator)
	require.True(t, isImage)
	out = gen.GenerateImage(context.Background(), "cat", "")
	require.True(t, out.IsFailure())
	assert.Equal(t, core.FailureConfiguration, out.Err.Kind)

	var ce *core.ConfigurationError
	assert.ErrorAs(t, out.Err, &ce)
}
