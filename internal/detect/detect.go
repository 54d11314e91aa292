// Package detect matches candidate buzzwords against free-form transcript
// text. Matching is literal: normalized substring containment for multi-word
// phrases, word-boundary containment for single words, plus a static alias
// table for common spoken variants ("continuous integration" → "ci/cd").
//
// Detect is pure and stateless; idempotence across overlapping transcript
// fragments is the caller's responsibility (the session controller tracks
// already-credited words).
package detect

import (
	"regexp"
	"strings"
	"sync"
)

// patternCache holds compiled word-boundary regexps keyed by normalized
// candidate word. Card vocabularies are small and stable, so the cache is
// effectively bounded by the active category's pool.
var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]*regexp.Regexp)
)

// quoteNormalizer maps the Unicode single- and double-quote variants that
// speech recognition services like to emit onto their ASCII forms.
var quoteNormalizer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
)

// Normalize lowercases text, folds curly quotes to ASCII, and trims
// surrounding whitespace. Both transcripts and candidate words go through
// this before any comparison.
func Normalize(text string) string {
	return strings.TrimSpace(quoteNormalizer.Replace(strings.ToLower(text)))
}

// aliases maps a canonical candidate word (lowercased) to alternate surface
// forms a speaker might produce. Alias hits use plain substring containment,
// not word-boundary matching, so "m.v.p." matches inside punctuation runs.
var aliases = map[string][]string{
	"ci/cd":  {"ci cd", "cicd", "continuous integration"},
	"mvp":    {"minimum viable product", "m.v.p."},
	"roi":    {"return on investment", "r.o.i."},
	"api":    {"a.p.i.", "interface"},
	"devops": {"dev ops", "dev-ops"},
	"sla":    {"s.l.a.", "service level agreement"},
}

// Aliases returns the alternate surface forms for a candidate word, or nil
// when none are known. The lookup key is the word's normalized form.
func Aliases(word string) []string {
	return aliases[Normalize(word)]
}

// Detect returns the candidate words newly present in transcript, in
// candidate order with literal matches before alias matches and no
// duplicates. Candidates whose lowercased form appears in alreadyFilled are
// skipped entirely.
//
// Matching rules:
//   - multi-word candidates (containing a space after normalization) match
//     on literal substring containment;
//   - single-word candidates match only at word boundaries, so "sprint"
//     does not fire on "sprinting" but "mvp" fires on "our MVP, finally";
//   - a candidate not matched literally is retried through its alias list,
//     first alias hit wins.
func Detect(transcript string, candidates []string, alreadyFilled map[string]struct{}) []string {
	normalized := Normalize(transcript)

	var detected []string
	matched := make(map[string]struct{}, len(candidates))

	// Literal pass, in candidate order.
	for _, word := range candidates {
		if _, filled := alreadyFilled[strings.ToLower(word)]; filled {
			continue
		}
		if containsWord(normalized, Normalize(word)) {
			detected = append(detected, word)
			matched[word] = struct{}{}
		}
	}

	// Alias pass for everything still unmatched, again in candidate order.
	for _, word := range candidates {
		if _, filled := alreadyFilled[strings.ToLower(word)]; filled {
			continue
		}
		if _, ok := matched[word]; ok {
			continue
		}
		for _, alias := range aliases[strings.ToLower(word)] {
			if strings.Contains(normalized, alias) {
				detected = append(detected, word)
				break
			}
		}
	}

	return detected
}

// containsWord reports whether the normalized transcript contains the
// normalized candidate. Phrases use substring containment; single words
// require word boundaries on both sides.
func containsWord(transcript, word string) bool {
	if word == "" {
		return false
	}
	if strings.Contains(word, " ") {
		return strings.Contains(transcript, word)
	}
	re, err := boundaryPattern(word)
	if err != nil {
		return false
	}
	return re.MatchString(transcript)
}

// boundaryPattern compiles (and caches) the word-boundary regexp for a
// single-token candidate.
func boundaryPattern(word string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[word]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return nil, err
	}

	patternMu.Lock()
	patternCache[word] = re
	patternMu.Unlock()
	return re, nil
}
