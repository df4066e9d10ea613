package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerquiz/internal/game"
	"wagerquiz/internal/services/questions"
)

var firstQuestion = game.Question{Text: "How many legs does a spider have?", Answer: 8}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("g1", "alice", firstQuestion, questions.PolicyFile))
	assert.ErrorIs(t, r.Create("g1", "bob", firstQuestion, questions.PolicyFile), game.ErrGameConflict)

	err := r.With("g1", func(g *game.Game) error {
		assert.Equal(t, []string{"alice"}, g.Players())
		assert.Equal(t, 1, g.Rounds())
		assert.Equal(t, firstQuestion, g.CurrentRound().Question())
		return nil
	})
	require.NoError(t, err)

	e, err := r.lookup("g1")
	require.NoError(t, err)
	assert.Equal(t, questions.PolicyFile, e.policy)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryWithReturnsCallbackError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("g1", "alice", firstQuestion, questions.PolicyFile))

	boom := errors.New("boom")
	assert.ErrorIs(t, r.With("g1", func(*game.Game) error { return boom }), boom)
	assert.ErrorIs(t, r.With("g2", func(*game.Game) error { return nil }), game.ErrGameNotFound)
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("g1", "alice", firstQuestion, questions.PolicyFile))

	// A caller that found the entry just before the delete sees it gone.
	e, err := r.lookup("g1")
	require.NoError(t, err)

	assert.True(t, r.Delete("g1"))
	assert.False(t, r.Delete("g1"))
	assert.True(t, e.closed)
	assert.Equal(t, 0, r.Len())

	called := false
	err = r.With("g1", func(*game.Game) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	assert.False(t, called)
	assert.ErrorIs(t, r.withEntry(e, func(*game.Game) error { return nil }), game.ErrGameNotFound)

	// A new game under the same id does not revive the old entry.
	require.NoError(t, r.Create("g1", "bob", firstQuestion, questions.PolicyFile))
	assert.ErrorIs(t, r.withEntry(e, func(*game.Game) error { return nil }), game.ErrGameNotFound)
	assert.NoError(t, r.With("g1", func(*game.Game) error { return nil }))
}
