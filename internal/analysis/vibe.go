package analysis

import (
	"math"
	"regexp"
	"strings"
)

// Vibe keyword classes.
const (
	VibePositive = "positive"
	VibeNegative = "negative"
	VibeNeutral  = "neutral"
	VibeIntense  = "intense"
	VibeCasual   = "casual"
)

var vibeKeywords = map[string][]string{
	VibePositive: {
		"amazing", "awesome", "beautiful", "brilliant", "excellent", "fantastic",
		"great", "incredible", "love", "wonderful", "perfect", "happy", "joy",
		"excited", "thrilled", "grateful", "blessed", "inspired", "motivated",
	},
	VibeNegative: {
		"terrible", "awful", "horrible", "disgusting", "hate", "angry",
		"frustrated", "disappointed", "sad", "depressed", "anxious", "worried",
		"scared", "terrified", "devastated", "heartbroken", "miserable",
	},
	VibeNeutral: {
		"okay", "fine", "alright", "normal", "regular", "standard", "average",
		"decent", "acceptable", "reasonable", "moderate", "balanced",
	},
	VibeIntense: {
		"absolutely", "completely", "totally", "extremely", "incredibly",
		"massively", "hugely", "enormously", "dramatically", "radically",
	},
	VibeCasual: {
		"lol", "haha", "omg", "wow", "cool", "nice", "yeah", "yep", "nope",
		"idk", "imo", "tbh", "btw", "fyi", "jk", "smh", "fml",
	},
}

const vibeKeywordThreshold = 0.1

// Vibe is the overall mood of a text.
type Vibe struct {
	Score     float64            `json:"overall_vibe"`
	Sentiment Sentiment          `json:"sentiment"`
	Keywords  map[string]float64 `json:"keyword_analysis"`
	Length    int                `json:"text_length"`
	Hashtags  []string           `json:"hashtags"`
	Mentions  []string           `json:"mentions"`
}

// AnalyzeVibe combines lexicon sentiment with keyword presence into a
// score clamped to [-1, 1].
func AnalyzeVibe(text string) Vibe {
	cleaned := CleanText(text)
	sentiment := AnalyzeSentiment(cleaned)
	keywords := keywordScores(cleaned)
	return Vibe{
		Score:     combineVibe(sentiment.Compound, keywords),
		Sentiment: sentiment,
		Keywords:  keywords,
		Length:    len([]rune(cleaned)),
		Hashtags:  ExtractHashtags(text),
		Mentions:  ExtractMentions(text),
	}
}

// VibeDescription maps a vibe score to a phrase.
func VibeDescription(score float64) string {
	switch {
	case score >= 0.8:
		return "extremely positive"
	case score >= 0.5:
		return "very positive"
	case score >= 0.2:
		return "positive"
	case score >= -0.2:
		return "neutral"
	case score >= -0.5:
		return "negative"
	case score >= -0.8:
		return "very negative"
	default:
		return "extremely negative"
	}
}

func keywordScores(text string) map[string]float64 {
	tokens := tokenize(text)
	scores := make(map[string]float64, len(vibeKeywords))
	for class, words := range vibeKeywords {
		count := 0
		for _, word := range words {
			count += countPhrase(tokens, tokenize(word))
		}
		scores[class] = float64(count) / float64(len(words))
	}
	return scores
}

func combineVibe(compound float64, keywords map[string]float64) float64 {
	score := compound
	if keywords[VibePositive] > vibeKeywordThreshold {
		score += 0.2
	}
	if keywords[VibeNegative] > vibeKeywordThreshold {
		score -= 0.2
	}
	if keywords[VibeIntense] > vibeKeywordThreshold {
		score *= 1.5
	}
	if keywords[VibeCasual] > vibeKeywordThreshold {
		score *= 0.8
	}
	return math.Max(-1, math.Min(1, score))
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[-'][\p{L}\p{N}]+)*`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func countPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return 0
	}
	count := 0
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		matched := true
		for j, word := range phrase {
			if tokens[i+j] != word {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return count
}
