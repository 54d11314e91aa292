package detect

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticThreshold is the minimum Jaro-Winkler score for a candidate
	// that already shares a Double Metaphone code with the input.
	phoneticThreshold = 0.70

	// fuzzyThreshold is the minimum Jaro-Winkler score when no phonetic
	// overlap exists. Higher, because string similarity alone is noisier.
	fuzzyThreshold = 0.85
)

// Closest resolves a misspelled or misheard word to the most similar
// candidate. It is meant for user-typed input ("synergee" for "synergy"),
// not for transcripts — Detect stays literal so overlapping transcript
// fragments behave predictably.
//
// Candidates are filtered by Double Metaphone code overlap and ranked by
// Jaro-Winkler similarity; phonetic hits need a score of at least 0.70,
// non-phonetic hits at least 0.85. Multi-word candidates are compared as
// full strings, without spaces, and token-pairwise, taking the best score.
func Closest(word string, candidates []string) (match string, score float64, ok bool) {
	input := Normalize(word)
	if input == "" || len(candidates) == 0 {
		return "", 0, false
	}
	inputTokens := strings.Fields(input)
	inputCodes := metaphoneCodes(inputTokens)

	var (
		bestScore    float64
		bestPhonetic bool
	)
	for _, cand := range candidates {
		c := Normalize(cand)
		if c == "" {
			continue
		}
		tokens := strings.Fields(c)
		phonetic := codesOverlap(inputCodes, metaphoneCodes(tokens))
		s := similarity(input, inputTokens, c, tokens)

		threshold := fuzzyThreshold
		if phonetic {
			threshold = phoneticThreshold
		}
		if s < threshold {
			continue
		}
		// A phonetic hit beats any non-phonetic one regardless of score.
		if phonetic != bestPhonetic {
			if !phonetic {
				continue
			}
			bestPhonetic = true
			bestScore = s
			match = cand
			continue
		}
		if s > bestScore {
			bestScore = s
			match = cand
		}
	}
	return match, bestScore, match != ""
}

// metaphoneCodes returns the union of Double Metaphone codes over tokens.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, 2*len(tokens))
	for _, t := range tokens {
		primary, secondary := matchr.DoubleMetaphone(t)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score across full strings, the
// space-stripped strings, and every token pair.
func similarity(input string, inputTokens []string, cand string, candTokens []string) float64 {
	score := matchr.JaroWinkler(input, cand, false)
	if len(inputTokens) > 1 || len(candTokens) > 1 {
		joined := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(candTokens, ""), false)
		if joined > score {
			score = joined
		}
	}
	for _, it := range inputTokens {
		for _, ct := range candTokens {
			if s := matchr.JaroWinkler(it, ct, false); s > score {
				score = s
			}
		}
	}
	return score
}
