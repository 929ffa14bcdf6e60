package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeUserArchetypes(t *testing.T) {
	tests := []struct {
		name      string
		posts     []string
		archetype string
	}{
		{name: "observer", posts: []string{"The meeting is at noon", "Train leaves at five"}, archetype: ArchetypeObserver},
		{name: "builder", posts: []string{"SHIP IT NOW!!"}, archetype: ArchetypeBuilder},
		{name: "shitposter", posts: []string{"I HATE THIS SO BAD"}, archetype: ArchetypeShitposter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, ok := SummarizeUser(tt.posts)
			require.True(t, ok)
			require.Equal(t, tt.archetype, summary.Archetype)
			require.Equal(t, len(tt.posts), summary.Posts)
		})
	}
}

func TestSummarizeUserIgnoresBlankPosts(t *testing.T) {
	_, ok := SummarizeUser([]string{"", "   "})
	require.False(t, ok)

	summary, ok := SummarizeUser([]string{"", "I love this"})
	require.True(t, ok)
	assert.Equal(t, 1, summary.Posts)
	assert.Equal(t, LabelPositive, summary.Label)
}

func TestScoreFeeds(t *testing.T) {
	scores := ScoreFeeds(
		[]string{"I love golang and Golang tooling", "rust too"},
		map[string][]string{
			"go":     {"golang"},
			"rust":   {"rust", "cargo"},
			"python": {"python"},
		},
	)
	require.Equal(t, []FeedScore{{Name: "go", Score: 2}, {Name: "rust", Score: 1}}, scores)
	require.Empty(t, ScoreFeeds(nil, map[string][]string{"go": {"golang"}}))
}
