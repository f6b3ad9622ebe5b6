// Package spam holds the comment spam heuristics. Classification is a pure
// function over the submitted text: no I/O, no state, same input same verdict.
// On a positive match the reason is meant to be shown to the submitting user,
// and the submission is rejected as-is. Content is never rewritten.
package spam

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxCharRun       = 7   // a run of this many identical characters is flagged
	maxLinks         = 2   // more than this counts as bulk links
	maxWordRepeats   = 4   // same word this many times is allowed, more is not
	capsRatioLimit   = 0.7 // uppercase share of letters above this is shouting
	capsMinLetters   = 12  // ignore the caps ratio on very short texts
)

var (
	urlPattern     = regexp.MustCompile(`(?i)https?://[^\s]+`)
	wordPattern    = regexp.MustCompile(`[\p{L}\p{N}]+`)
	htmlTagPattern = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)

	// Strict policy strips everything; used as a detector only.
	htmlPolicy = bluemonday.StrictPolicy()

	// Substrings that only ever show up in junk submissions.
	spamPhrases = []string{
		"click here",
		"buy now",
		"free money",
		"limited time offer",
		"work from home",
		"100% free",
		"no credit check",
		"earn cash fast",
		"winner winner",
	}
)

// Result is the classifier verdict. Reason is non-empty whenever IsSpam is
// true and is safe to surface verbatim to the submitting user.
type Result struct {
	IsSpam bool   `json:"is_spam"`
	Reason string `json:"reason,omitempty"`
}

// Classify runs the heuristics against text and returns the first match.
func Classify(text string) Result {
	if reason := repeatedChars(text); reason != "" {
		return Result{IsSpam: true, Reason: reason}
	}
	if reason := bulkLinks(text); reason != "" {
		return Result{IsSpam: true, Reason: reason}
	}
	if reason := repeatedWords(text); reason != "" {
		return Result{IsSpam: true, Reason: reason}
	}
	if reason := allCaps(text); reason != "" {
		return Result{IsSpam: true, Reason: reason}
	}
	if reason := knownPhrases(text); reason != "" {
		return Result{IsSpam: true, Reason: reason}
	}
	if reason := embeddedMarkup(text); reason != "" {
		return Result{IsSpam: true, Reason: reason}
	}
	return Result{}
}

func repeatedChars(text string) string {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= maxCharRun {
				return "too many repeated characters"
			}
		} else {
			prev = r
			run = 1
		}
	}
	return ""
}

func bulkLinks(text string) string {
	if n := len(urlPattern.FindAllStringIndex(text, -1)); n > maxLinks {
		return fmt.Sprintf("too many links (%d)", n)
	}
	return ""
}

func repeatedWords(text string) string {
	counts := map[string]int{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 3 {
			continue
		}
		counts[w]++
		if counts[w] > maxWordRepeats {
			return fmt.Sprintf("the word %q is repeated too often", w)
		}
	}
	return ""
}

func allCaps(text string) string {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters >= capsMinLetters && float64(upper)/float64(letters) > capsRatioLimit {
		return "please do not write in all capitals"
	}
	return ""
}

func knownPhrases(text string) string {
	lowered := strings.ToLower(text)
	for _, phrase := range spamPhrases {
		if strings.Contains(lowered, phrase) {
			return fmt.Sprintf("contains a blocked phrase (%q)", phrase)
		}
	}
	return ""
}

// embeddedMarkup rejects comments carrying HTML tags. The sanitizer is only
// consulted to confirm the tag would actually be stripped, so stray "<" in
// prose (e.g. "x < y", "<3") does not trip the check.
func embeddedMarkup(text string) string {
	if htmlTagPattern.MatchString(text) && htmlPolicy.Sanitize(text) != text {
		return "HTML markup is not allowed in comments"
	}
	return ""
}
