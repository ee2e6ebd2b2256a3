package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/story-proxy/pkg/state"
)

// canonNames maps canon character names to the re-imagined names used in
// this story. Longer forms come first so a full name is replaced before its
// given name is.
var canonNames = []struct {
	canon       string
	replacement string
}{
	{"Harry Potter", "Ver Potter"},
	{"Ron Weasley", "Tobin Marsh"},
	{"Hermione Granger", "Mireille Hale"},
	{"Harry", "Ver"},
	{"Hermione", "Mireille"},
	{"Ron", "Tobin"},
	{"Hagrid", "Barrow"},
	{"Dumbledore", "Headmaster Orrin"},
	{"Voldemort", "Vesper"},
	{"Snape", "Corvin"},
	{"Malfoy", "Vane"},
	{"해리 포터", "베르 포터"},
	{"론 위즐리", "토빈 마시"},
	{"헤르미온느", "미레유"},
	{"해그리드", "배로우"},
	{"덤블도어", "오린 교장"},
	{"볼드모트", "베스퍼"},
	{"스네이프", "코빈"},
	{"말포이", "베인"},
	{"해리", "베르"},
}

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// CanonFilter rewrites canon character names that slipped into model output.
type CanonFilter struct {
	rules []rule
}

// NewCanonFilter creates a filter with the built-in name table.
func NewCanonFilter() *CanonFilter {
	cf := &CanonFilter{rules: make([]rule, 0, len(canonNames))}

	for _, n := range canonNames {
		pattern := regexp.QuoteMeta(n.canon)
		// \b only understands ASCII word characters, so Hangul names
		// match as plain substrings.
		if isASCII(n.canon) {
			pattern = `(?i)\b` + pattern + `\b`
		}
		cf.rules = append(cf.rules, rule{
			re:          regexp.MustCompile(pattern),
			replacement: n.replacement,
		})
	}

	return cf
}

// FilterText replaces canon names in text, keeping the case pattern of
// each match.
func (cf *CanonFilter) FilterText(text string) string {
	result := text
	for _, r := range cf.rules {
		result = r.re.ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, r.replacement)
		})
	}
	return result
}

// ContainsCanon reports whether text mentions any canon name.
func (cf *CanonFilter) ContainsCanon(text string) bool {
	for _, r := range cf.rules {
		if r.re.MatchString(text) {
			return true
		}
	}
	return false
}

// FilterReply rewrites every player-visible string of a reply in place.
func (cf *CanonFilter) FilterReply(r *state.TurnResult) {
	if r == nil {
		return
	}
	r.Narration = cf.FilterText(r.Narration)
	r.Status.Place = cf.FilterText(r.Status.Place)
	r.Status.Time = cf.FilterText(r.Status.Time)
	r.Status.Summary = cf.FilterText(r.Status.Summary)
	if r.Cast.Active != nil {
		r.Cast.Active.Name = cf.FilterText(r.Cast.Active.Name)
	}
	for i := range r.Cast.Others {
		r.Cast.Others[i].Name = cf.FilterText(r.Cast.Others[i].Name)
	}
	if r.Question != nil {
		r.Question.Text = cf.FilterText(r.Question.Text)
		r.Question.InputHint = cf.FilterText(r.Question.InputHint)
	}
	if r.End != nil {
		r.End.Title = cf.FilterText(r.End.Title)
		r.End.Summary = cf.FilterText(r.End.Summary)
	}
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	// Scripts without case, such as Hangul, come back unchanged.
	if !hasLetterCase(original) {
		return replacement
	}

	// All uppercase
	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}

	// All lowercase
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	// Title case (first letter of each word uppercase, rest lowercase)
	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case - follow the original character by character
	result := []rune(replacement)
	originalRunes := []rune(original)

	for i := range result {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			result[i] = unicode.ToUpper(result[i])
		} else {
			result[i] = unicode.ToLower(result[i])
		}
	}

	return string(result)
}

func hasLetterCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
