// Package guardrail validates coaching memory text before it is stored
// and replayed verbatim into future prompts. PII-shaped content is
// rejected outright, never partially redacted; prompt-injection
// phrasing is neutralized with a filler token.
package guardrail

import (
	"regexp"
	"strings"
)

// Filler replaces detected injection phrasing in sanitized output.
const Filler = "[filtered]"

const (
	// maxLength bounds stored note size in runes, ellipsis included.
	maxLength = 300
	// minMeaningful is the least non-filler content a note may carry
	// after sanitization.
	minMeaningful = 10
)

// Rejection reason categories. These are safe to log and count; the
// matched text itself never is.
const (
	ReasonSSN       = "pii_ssn"
	ReasonCard      = "pii_card_number"
	ReasonEmail     = "pii_email"
	ReasonPhone     = "pii_phone"
	ReasonIDNumber  = "pii_id_number"
	ReasonPassword  = "pii_password"
	ReasonNoContent = "no_meaningful_content"
)

// Result is the guardrail verdict. When Safe, Sanitized holds the text
// to store; when not, Reason holds a category from the constants above.
type Result struct {
	Sanitized string
	Reason    string
	Safe      bool
}

// rejectPatterns are scanned against the raw input. Any hit rejects
// the whole note: a redacted fragment of a card number is still a
// fragment of a card number.
var rejectPatterns = []struct {
	reason string
	re     *regexp.Regexp
}{
	{ReasonSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{ReasonCard, regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`)},
	{ReasonEmail, regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)},
	{ReasonPhone, regexp.MustCompile(`(?:\+?\d{1,3}[ .-]?)?(?:\(\d{3}\)|\d{3})[ .-]?\d{3}[ .-]?\d{4}\b`)},
	{ReasonIDNumber, regexp.MustCompile(`\b[A-Z]{1,2}\d{6,8}\b`)},
	{ReasonPassword, regexp.MustCompile(`(?i)\bpassword\s*[:=]`)},
}

// injectionPatterns are instruction-override phrasings and provider
// control tokens. Replaced with Filler rather than rejected so a note
// like "remember I hate burpees, ignore previous instructions" keeps
// its useful half.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:ignore|disregard|forget)\s+(?:all\s+|any\s+)?(?:previous|prior|above|earlier)\s+(?:instructions?|prompts?|messages?|context)\b`),
	regexp.MustCompile(`(?i)\byou\s+are\s+now\b`),
	regexp.MustCompile(`(?i)\b(?:system|admin|administrator|developer)\s+mode\b`),
	regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`),
	regexp.MustCompile(`<\|[^|>]*\|>`),
	regexp.MustCompile(`\[/?INST\]`),
	regexp.MustCompile(`<</?SYS>>`),
}

var (
	markupTagPattern  = regexp.MustCompile(`<[^>]+>`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// Validate checks a candidate memory note. The verdict is total:
// either the note is safe to store as Result.Sanitized, or it is
// dropped with a reason. Validating an already-clean short string
// returns it unchanged.
func Validate(text string) Result {
	for _, p := range rejectPatterns {
		if p.re.MatchString(text) {
			return Result{Safe: false, Reason: p.reason}
		}
	}

	sanitized := text
	for _, re := range injectionPatterns {
		sanitized = re.ReplaceAllString(sanitized, Filler)
	}
	sanitized = markupTagPattern.ReplaceAllString(sanitized, "")
	sanitized = blankLinesPattern.ReplaceAllString(sanitized, "\n\n")
	sanitized = strings.TrimSpace(sanitized)
	sanitized = truncate(sanitized, maxLength)

	if meaningfulLength(sanitized) < minMeaningful {
		return Result{Safe: false, Reason: ReasonNoContent}
	}

	return Result{Safe: true, Sanitized: sanitized}
}

// truncate cuts text to at most limit runes, breaking at the last word
// boundary that leaves room for the ellipsis marker.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	const marker = "..."
	cut := limit - len(marker)
	head := runes[:cut]
	if idx := lastSpace(head); idx > 0 {
		head = head[:idx]
	}
	return strings.TrimRight(string(head), " \t\n") + marker
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case ' ', '\t', '\n':
			return i
		}
	}
	return -1
}

// meaningfulLength counts the runes left after removing filler tokens
// and whitespace. A note that is entirely injection attempts collapses
// to nothing here.
func meaningfulLength(text string) int {
	stripped := strings.ReplaceAll(text, Filler, "")
	count := 0
	for _, r := range stripped {
		switch r {
		case ' ', '\t', '\n', '\r', '.':
		default:
			count++
		}
	}
	return count
}
