package analysis

import (
	"sort"
	"strings"
)

// Archetypes assigned by SummarizeUser.
const (
	ArchetypeShitposter = "Shitposter"
	ArchetypeTeacher    = "Teacher"
	ArchetypeBuilder    = "Builder"
	ArchetypeObserver   = "Observer"
	ArchetypeExplorer   = "Explorer"
)

// UserSummary averages per-post signals across a user's posts.
type UserSummary struct {
	Posts             int     `json:"posts"`
	AvgCompound       float64 `json:"avg_compound"`
	AvgPositive       float64 `json:"avg_pos"`
	AvgNegative       float64 `json:"avg_neg"`
	AvgCaps           float64 `json:"avg_caps"`
	AvgExclamations   float64 `json:"avg_exclamations"`
	AvgQuestions      float64 `json:"avg_questions"`
	AvgEmojiSentiment float64 `json:"avg_emoji_sentiment"`
	Label             string  `json:"vibe"`
	Archetype         string  `json:"archetype"`
}

// SummarizeUser profiles a user from their posts. Blank posts are ignored;
// ok is false when nothing remains.
func SummarizeUser(posts []string) (UserSummary, bool) {
	var summary UserSummary
	for _, post := range posts {
		if strings.TrimSpace(post) == "" {
			continue
		}
		sentiment := AnalyzeSentiment(CleanText(post))
		summary.Posts++
		summary.AvgCompound += sentiment.Compound
		summary.AvgPositive += sentiment.Positive
		summary.AvgNegative += sentiment.Negative
		summary.AvgCaps += CapitalizationRatio(post)
		summary.AvgExclamations += float64(sentiment.Indicators.Exclamations)
		summary.AvgQuestions += float64(sentiment.Indicators.Questions)
		summary.AvgEmojiSentiment += emojiSentiment(post).Average
	}
	if summary.Posts == 0 {
		return UserSummary{}, false
	}

	n := float64(summary.Posts)
	summary.AvgCompound /= n
	summary.AvgPositive /= n
	summary.AvgNegative /= n
	summary.AvgCaps /= n
	summary.AvgExclamations /= n
	summary.AvgQuestions /= n
	summary.AvgEmojiSentiment /= n
	summary.Label = labelFor(summary.AvgCompound)
	summary.Archetype = detectArchetype(summary)
	return summary, true
}

func detectArchetype(s UserSummary) string {
	switch {
	case s.AvgNegative > 0.4 && s.AvgCaps > 0.2:
		return ArchetypeShitposter
	case s.AvgPositive > 0.5 && s.AvgQuestions > 1.5:
		return ArchetypeTeacher
	case s.AvgCaps > 0.15 && s.AvgExclamations > 1:
		return ArchetypeBuilder
	case s.AvgPositive < 0.2 && s.AvgNegative < 0.2:
		return ArchetypeObserver
	default:
		return ArchetypeExplorer
	}
}

// FeedScore is the keyword hit count of one feed.
type FeedScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ScoreFeeds ranks feeds by how often their terms appear in posts. Feeds
// without hits are dropped; ties keep name order.
func ScoreFeeds(posts []string, terms map[string][]string) []FeedScore {
	tokens := tokenize(strings.Join(posts, " "))

	scores := make([]FeedScore, 0, len(terms))
	for name, words := range terms {
		score := 0
		for _, word := range words {
			score += countPhrase(tokens, tokenize(word))
		}
		if score > 0 {
			scores = append(scores, FeedScore{Name: name, Score: score})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Name < scores[j].Name
	})
	return scores
}
