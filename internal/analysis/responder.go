package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// MaxReplyLength is the post length limit in characters.
const MaxReplyLength = 300

// Recommendations returned in an Assessment.
const (
	RecommendYes   = "yes"
	RecommendNo    = "no"
	RecommendMaybe = "maybe"
)

const (
	activityWindow     = 30 * 24 * time.Hour
	defaultPostsPerDay = 1.0
	generalFeed        = "General Feed"
)

var fallbackPersonas = []string{"Creator", "Thinker", "Builder"}

type contentCategory struct {
	Name     string
	Feed     string
	Personas []string
	Keywords []string
}

// Picker chooses one of options. Options are never empty.
type Picker func(options []string) string

// RandomPicker picks uniformly at random.
func RandomPicker(options []string) string {
	return options[rand.IntN(len(options))]
}

// FirstPicker always picks the first option.
func FirstPicker(options []string) string {
	return options[0]
}

// Input is the material gathered about one account.
type Input struct {
	Handle     string
	Posts      []string
	Timestamps []time.Time
}

// Assessment is the reputation verdict for one account.
type Assessment struct {
	Handle         string      `json:"handle"`
	PostsAnalyzed  int         `json:"posts_analyzed"`
	Sentiment      Sentiment   `json:"sentiment"`
	Vibe           float64     `json:"vibe"`
	VibeLabel      string      `json:"vibe_label"`
	VibeWord       string      `json:"vibe_word"`
	Category       string      `json:"category"`
	Persona        string      `json:"persona"`
	Feed           string      `json:"feed"`
	PostsPerDay    float64     `json:"posts_per_day"`
	Recommendation string      `json:"recommendation"`
	Summary        UserSummary `json:"summary"`
}

// Responder turns an account's posts into an assessment and reply text.
type Responder struct {
	Pick      Picker
	Clock     clockwork.Clock
	MaxLength int
}

// NewResponder returns a responder with random word choice and the real clock.
func NewResponder() *Responder {
	return &Responder{Pick: RandomPicker, Clock: clockwork.NewRealClock(), MaxLength: MaxReplyLength}
}

// Assess analyzes the combined posts of an account.
func (r *Responder) Assess(in Input) Assessment {
	content := strings.Join(in.Posts, " ")
	vibe := AnalyzeVibe(content)
	sentiment := AnalyzeSentiment(CleanText(content))
	summary, _ := SummarizeUser(in.Posts)

	assessment := Assessment{
		Handle:        strings.TrimPrefix(strings.TrimSpace(in.Handle), "@"),
		PostsAnalyzed: len(in.Posts),
		Sentiment:     sentiment,
		Vibe:          vibe.Score,
		VibeLabel:     VibeDescription(vibe.Score),
		VibeWord:      r.pick(vibeWords[vibeClass(vibe.Score)]),
		Feed:          generalFeed,
		PostsPerDay:   r.postsPerDay(in.Timestamps),
		Summary:       summary,
	}

	if category, ok := bestCategory(content); ok {
		assessment.Category = category.Name
		assessment.Feed = category.Feed
		assessment.Persona = r.pick(category.Personas)
	} else {
		assessment.Category = "general"
		assessment.Persona = r.pick(fallbackPersonas)
	}

	assessment.Recommendation = recommend(sentiment.Compound, vibe.Score)
	return assessment
}

// Reply renders the reply text for an assessment, truncated to MaxLength.
func (r *Responder) Reply(a Assessment) string {
	topic := strings.TrimSuffix(strings.ToLower(a.Feed), " feed")
	text := fmt.Sprintf("Should you follow @%s?\n%s\n🔹 Vibes: %s\n🔹 Persona: %s\n🔹 ~%.0f posts/day, mostly original\n🔹 Posts on %s\n📌 Add to your %s.",
		a.Handle,
		recommendationLine(a.Recommendation),
		a.VibeWord,
		a.Persona,
		a.PostsPerDay,
		topic,
		a.Feed,
	)
	limit := MaxReplyLength
	if r != nil && r.MaxLength > 0 {
		limit = r.MaxLength
	}
	return Truncate(text, limit)
}

// postsPerDay averages the posts made within the last 30 days. Without any
// timestamps it assumes one post a day.
func (r *Responder) postsPerDay(timestamps []time.Time) float64 {
	if len(timestamps) == 0 {
		return defaultPostsPerDay
	}
	cutoff := r.now().Add(-activityWindow)
	count := 0
	for _, ts := range timestamps {
		if !ts.Before(cutoff) {
			count++
		}
	}
	return math.Round(float64(count)/30*10) / 10
}

func (r *Responder) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	if r == nil || r.Pick == nil {
		return RandomPicker(options)
	}
	return r.Pick(options)
}

func (r *Responder) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock.Now()
	}
	return time.Now()
}

func vibeClass(score float64) string {
	switch {
	case score > 0.2:
		return "positive"
	case score < -0.2:
		return "negative"
	case score >= -0.05 && score <= 0.05:
		return "neutral"
	default:
		return "mixed"
	}
}

func recommend(sentiment, vibe float64) string {
	switch {
	case sentiment > 0.1 && vibe > 0.1:
		return RecommendYes
	case sentiment < -0.1 || vibe < -0.1:
		return RecommendNo
	default:
		return RecommendMaybe
	}
}

func recommendationLine(recommendation string) string {
	switch recommendation {
	case RecommendYes:
		return "✅ Yes — here's why:"
	case RecommendNo:
		return "❌ No — here's why:"
	default:
		return "🤔 Maybe — here's why:"
	}
}

// bestCategory scores each content category by the number of distinct
// keywords present in content.
func bestCategory(content string) (contentCategory, bool) {
	tokens := tokenize(content)
	best, bestScore := contentCategory{}, 0
	for _, category := range contentCategories {
		score := 0
		for _, keyword := range category.Keywords {
			if countPhrase(tokens, tokenize(keyword)) > 0 {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	return best, bestScore > 0
}
