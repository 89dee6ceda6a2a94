// ABOUTME: Lexicon-based tone detection for the tone criterion
// ABOUTME: Counts positive and negative cue words; ties and no cues are neutral
package validator

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "happy": true, "glad": true,
	"love": true, "wonderful": true, "amazing": true, "pleased": true, "fantastic": true,
	"helpful": true, "thanks": true, "thank": true, "delighted": true, "success": true,
	"successful": true, "enjoy": true, "positive": true, "perfect": true, "awesome": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "awful": true, "sad": true, "angry": true,
	"hate": true, "horrible": true, "poor": true, "unfortunately": true, "sorry": true,
	"fail": true, "failed": true, "failure": true, "error": true, "wrong": true,
	"disappointed": true, "negative": true, "worst": true, "broken": true, "problem": true,
}

// DetectTone classifies text as positive, negative or neutral
func DetectTone(text string) Tone {
	words := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	score := 0
	for _, w := range words {
		switch {
		case positiveWords[w]:
			score++
		case negativeWords[w]:
			score--
		}
	}

	switch {
	case score > 0:
		return TonePositive
	case score < 0:
		return ToneNegative
	default:
		return ToneNeutral
	}
}
