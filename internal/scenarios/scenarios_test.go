package scenarios

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogContainsBuiltins(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, []string{
		"character_introduction",
		"crisis_response",
		"curiosity_exploration",
		"emotional_support",
		"seeking_guidance",
	}, c.IDs())
}

func TestCatalogGet(t *testing.T) {
	c := NewCatalog()

	s, ok := c.Get("seeking_guidance")
	require.True(t, ok)
	assert.Equal(t, "Seeking Guidance", s.Name)
	assert.Equal(t, 12, s.TargetExchanges)
	assert.Equal(t, 10, s.MinExchanges)
	assert.Equal(t, 15, s.MaxExchanges)
	assert.Equal(t,
		[]string{"Character Authenticity Within Fantasy", "Emotional Journey Creation"},
		s.PrimaryCriteria)
	assert.Contains(t, s.InitialUserMessage, "difficult decision")

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCatalogListSorted(t *testing.T) {
	list := NewCatalog().List()
	require.Len(t, list, 5)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestScenarioShape(t *testing.T) {
	for _, s := range NewCatalog().List() {
		s := s
		t.Run(s.ID, func(t *testing.T) {
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Description)
			assert.NotEmpty(t, s.InitialUserMessage)
			assert.Positive(t, s.TargetExchanges)
			assert.LessOrEqual(t, s.MinExchanges, s.TargetExchanges)
			assert.LessOrEqual(t, s.TargetExchanges, s.MaxExchanges)
			assert.Len(t, s.PrimaryCriteria, 2)
			assert.Len(t, s.SecondaryCriteria, 2)
			assert.NotEmpty(t, s.ConversationFlow)
			assert.Len(t, s.FollowUpPrompts, 5)
		})
	}
}

func TestFollowUp(t *testing.T) {
	c := NewCatalog()
	s, ok := c.Get("emotional_support")
	require.True(t, ok)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		assert.Contains(t, s.FollowUpPrompts, s.FollowUp(r))
	}

	assert.Empty(t, Scenario{}.FollowUp(r))
}
