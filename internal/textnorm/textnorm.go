// Package textnorm cleans raw journal/post text before encoding.
//
// The same function runs at training and at inference time; any asymmetry
// between the two would feed the model text drawn from a different
// distribution than it trained on, so there is exactly one implementation
// and it is deterministic and stateless.
package textnorm

import (
	"regexp"
	"strings"
)

// EmptySentinel replaces text that cleaning reduced to nothing, so the
// encoder always receives a well-formed input.
const EmptySentinel = "[empty]"

// minMeaningfulRunes is the cutoff below which cleaned text is treated as
// carrying no signal.
const minMeaningfulRunes = 3

var (
	urlPattern         = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	mentionPattern     = regexp.MustCompile(`/r/\w+|/u/\w+`)
	placeholderPattern = regexp.MustCompile(`(?i)\[deleted\]|\[removed\]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Clean normalizes raw text: strips URLs, platform mentions and moderation
// placeholders, collapses whitespace runs, and trims. Text reduced below the
// meaningful minimum comes back as EmptySentinel.
func Clean(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = placeholderPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len([]rune(text)) < minMeaningfulRunes {
		return EmptySentinel
	}
	return text
}

// CleanTruncate cleans text and bounds it to maxRunes. Truncation happens
// after cleaning so the bound applies to what the encoder actually sees.
// maxRunes <= 0 means no bound.
func CleanTruncate(text string, maxRunes int) string {
	cleaned := Clean(text)
	if maxRunes <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxRunes {
		return cleaned
	}
	truncated := strings.TrimSpace(string(runes[:maxRunes]))
	if len([]rune(truncated)) < minMeaningfulRunes {
		return EmptySentinel
	}
	return truncated
}
