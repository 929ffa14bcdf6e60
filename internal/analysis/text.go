package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@([\w.-]*\w)`)
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	spacePattern   = regexp.MustCompile(`\s+`)
	wordPattern    = regexp.MustCompile(`[\p{L}\p{N}']+`)
	capsPattern    = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	emoticonRegex  = regexp.MustCompile(`[:;=]-?[)(/\\|pPoO]`)
)

// CleanText strips URLs and mentions, unwraps hashtags, and collapses whitespace.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "$1")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// ExtractHashtags returns hashtag bodies in order of appearance.
func ExtractHashtags(text string) []string {
	return submatches(hashtagPattern, text)
}

// ExtractMentions returns mentioned handles in order of appearance.
func ExtractMentions(text string) []string {
	return submatches(mentionPattern, text)
}

// ExtractEmojis returns runs of pictographic characters.
func ExtractEmojis(text string) []string {
	var (
		out []string
		run strings.Builder
	)
	flush := func() {
		if run.Len() > 0 {
			out = append(out, run.String())
			run.Reset()
		}
	}
	for _, r := range text {
		if isEmoji(r) {
			run.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// Truncate shortens text to at most max runes, ending with "..." when cut.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// CapitalizationRatio is the share of ASCII letters that are upper case.
func CapitalizationRatio(text string) float64 {
	var letters, upper int
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
			upper++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// Words lower-cases text and splits it into word tokens.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func submatches(pattern *regexp.Regexp, text string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, match[1])
	}
	return out
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F,
		r >= 0x1F300 && r <= 0x1F5FF,
		r >= 0x1F680 && r <= 0x1F6FF,
		r >= 0x1F1E0 && r <= 0x1F1FF,
		r >= 0x2700 && r <= 0x27BF,
		r >= 0x1F900 && r <= 0x1F9FF,
		r >= 0x2600 && r <= 0x26FF,
		r >= 0x1FA70 && r <= 0x1FAFF,
		r >= 0x2B50 && r <= 0x2B55:
		return true
	}
	return false
}

// repeatedLetterRuns counts runs of three or more identical letters or digits.
func repeatedLetterRuns(text string) int {
	count := 0
	var prev rune
	run := 0
	for _, r := range text {
		if (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') && r == prev {
			run++
			if run == 3 {
				count++
			}
			continue
		}
		prev = r
		run = 1
	}
	return count
}
