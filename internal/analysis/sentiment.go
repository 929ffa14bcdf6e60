package analysis

import (
	"math"
	"strings"
)

// Sentiment labels.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

const (
	negationScalar   = -0.74
	capsIncrement    = 0.733
	exclamationBoost = 0.292
	normalizeAlpha   = 15.0
	labelThreshold   = 0.05
)

// Indicators counts the stylistic signals of emotional intensity.
type Indicators struct {
	Exclamations    int `json:"exclamations"`
	Questions       int `json:"questions"`
	Ellipses        int `json:"ellipsis"`
	AllCapsWords    int `json:"all_caps_words"`
	RepeatedLetters int `json:"repeated_letters"`
	Emoticons       int `json:"emoticons"`
}

// EmojiSentiment summarizes the emoji valence in a text.
type EmojiSentiment struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Total   float64 `json:"total"`
}

// Sentiment is the lexicon-based sentiment of one text.
type Sentiment struct {
	Compound   float64        `json:"compound"`
	Positive   float64        `json:"positive"`
	Negative   float64        `json:"negative"`
	Neutral    float64        `json:"neutral"`
	Label      string         `json:"label"`
	Indicators Indicators     `json:"indicators"`
	Emoji      EmojiSentiment `json:"emoji"`
}

var emojiScores = buildEmojiScores()

func buildEmojiScores() map[rune]float64 {
	scores := make(map[rune]float64)
	for _, group := range emojiValence {
		for _, r := range group.emoji {
			scores[r] = group.valence
		}
	}
	return scores
}

// AnalyzeSentiment scores text against the lexicon. Negations flip and damp
// the next three words, boosters shift intensity, shouted words and
// exclamation marks add emphasis.
func AnalyzeSentiment(text string) Sentiment {
	result := Sentiment{
		Label:      LabelNeutral,
		Neutral:    1,
		Indicators: indicatorsFor(text),
		Emoji:      emojiSentiment(text),
	}

	tokens := wordPattern.FindAllString(text, -1)
	if len(tokens) == 0 {
		return result
	}
	shouting := isShouting(tokens)

	var (
		sum            float64
		posSum, negSum float64
		neutralCount   int
		lowered        = make([]string, len(tokens))
	)
	for i, token := range tokens {
		lowered[i] = strings.ToLower(token)
	}

	for i, word := range lowered {
		valence, ok := lexiconValence(word)
		if !ok || boosters[word] != 0 {
			neutralCount++
			continue
		}

		if isUpperWord(tokens[i]) && !shouting {
			valence += math.Copysign(capsIncrement, valence)
		}
		if i > 0 {
			if boost, ok := boosters[lowered[i-1]]; ok {
				if valence > 0 {
					valence += boost
				} else {
					valence -= boost
				}
			}
		}
		for back := 1; back <= 3 && i-back >= 0; back++ {
			if negations[lowered[i-back]] {
				valence *= negationScalar
				break
			}
		}

		sum += valence
		switch {
		case valence > 0:
			posSum += valence + 1
		case valence < 0:
			negSum += valence - 1
		default:
			neutralCount++
		}
	}

	if sum != 0 {
		emphasis := float64(min(result.Indicators.Exclamations, 4)) * exclamationBoost
		sum += math.Copysign(emphasis, sum)
		if sum > 0 {
			posSum += emphasis
		} else {
			negSum -= emphasis
		}
	}

	result.Compound = normalize(sum)
	total := posSum + math.Abs(negSum) + float64(neutralCount)
	if total > 0 {
		result.Positive = round3(posSum / total)
		result.Negative = round3(math.Abs(negSum) / total)
		result.Neutral = round3(float64(neutralCount) / total)
	}
	result.Label = labelFor(result.Compound)
	return result
}

func labelFor(compound float64) string {
	switch {
	case compound >= labelThreshold:
		return LabelPositive
	case compound <= -labelThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func normalize(score float64) float64 {
	if score == 0 {
		return 0
	}
	value := score / math.Sqrt(score*score+normalizeAlpha)
	return round3(math.Max(-1, math.Min(1, value)))
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

func indicatorsFor(text string) Indicators {
	return Indicators{
		Exclamations:    strings.Count(text, "!"),
		Questions:       strings.Count(text, "?"),
		Ellipses:        strings.Count(text, "...") + strings.Count(text, "…"),
		AllCapsWords:    len(capsPattern.FindAllString(text, -1)),
		RepeatedLetters: repeatedLetterRuns(text),
		Emoticons:       len(emoticonRegex.FindAllString(text, -1)),
	}
}

func emojiSentiment(text string) EmojiSentiment {
	var out EmojiSentiment
	for _, r := range text {
		score, ok := emojiScores[r]
		if !ok {
			continue
		}
		out.Count++
		out.Total += score
	}
	if out.Count > 0 {
		out.Average = round3(out.Total / float64(out.Count))
		out.Total = round3(out.Total)
	}
	return out
}

func isUpperWord(token string) bool {
	hasLetter := false
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}
	return hasLetter && len(token) > 1
}

// isShouting reports whether every word is upper case, in which case caps
// carry no extra emphasis.
func isShouting(tokens []string) bool {
	upper := 0
	for _, token := range tokens {
		if isUpperWord(token) {
			upper++
		}
	}
	return upper == len(tokens)
}
