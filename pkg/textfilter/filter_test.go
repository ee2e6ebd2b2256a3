package textfilter

import (
	"testing"

	"github.com/jwebster45206/story-proxy/pkg/state"
)

func TestCanonFilter_FilterText(t *testing.T) {
	filter := NewCanonFilter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name replacement",
			input:    "Harry opened the door.",
			expected: "Ver opened the door.",
		},
		{
			name:     "full name replaced before given name",
			input:    "Harry Potter looked up.",
			expected: "Ver Potter looked up.",
		},
		{
			name:     "multiple names",
			input:    "Hermione glared at Ron.",
			expected: "Mireille glared at Tobin.",
		},
		{
			name:     "case preservation - uppercase",
			input:    "HAGRID! Wait!",
			expected: "BARROW! Wait!",
		},
		{
			name:     "case preservation - lowercase",
			input:    "someone whispered snape",
			expected: "someone whispered corvin",
		},
		{
			name:     "case preservation - mixed",
			input:    "hARRY",
			expected: "vER",
		},
		{
			name:     "multi-word replacement keeps title case",
			input:    "Dumbledore smiled.",
			expected: "Headmaster Orrin smiled.",
		},
		{
			name:     "word boundaries - partial matches should not be replaced",
			input:    "The Baron met Ronald at the harrying hour.",
			expected: "The Baron met Ronald at the harrying hour.",
		},
		{
			name:     "possessive",
			input:    "Malfoy's sneer faded.",
			expected: "Vane's sneer faded.",
		},
		{
			name:     "hangul name",
			input:    "해리가 고개를 들었다.",
			expected: "베르가 고개를 들었다.",
		},
		{
			name:     "hangul full name",
			input:    "해리 포터는 숨을 골랐다.",
			expected: "베르 포터는 숨을 골랐다.",
		},
		{
			name:     "hangul multiple names",
			input:    "덤블도어와 스네이프가 마주 섰다.",
			expected: "오린 교장와 코빈가 마주 섰다.",
		},
		{
			name:     "no canon names",
			input:    "베르는 종소리를 들었다.",
			expected: "베르는 종소리를 들었다.",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.FilterText(tt.input)
			if result != tt.expected {
				t.Errorf("FilterText(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCanonFilter_ContainsCanon(t *testing.T) {
	filter := NewCanonFilter()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"latin name", "Ask Hermione.", true},
		{"hangul name", "볼드모트의 그림자", true},
		{"partial latin", "Ronald and the Baron", false},
		{"clean", "The corridor was silent.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.ContainsCanon(tt.input); got != tt.expected {
				t.Errorf("ContainsCanon(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonFilter_FilterReply(t *testing.T) {
	filter := NewCanonFilter()

	r := &state.TurnResult{
		Narration: "Harry heard a bell.",
		Cast: state.Cast{
			Active: &state.Character{ID: "hagrid", Name: "Hagrid", Expression: "worried"},
			Others: []state.Character{{ID: "ron", Name: "Ron"}},
		},
		Status: state.Status{Place: "Dumbledore's office", Time: "dusk", Summary: "해리가 종소리를 들었다"},
		Question: &state.Question{
			Text:      "What does Harry do?",
			InputHint: "Tell Snape",
		},
		End: &state.End{EndingID: "E_BAD_01", Title: "Voldemort Rises", Summary: "말포이가 웃었다"},
	}

	filter.FilterReply(r)

	checks := []struct {
		field, got, want string
	}{
		{"narration", r.Narration, "Ver heard a bell."},
		{"active name", r.Cast.Active.Name, "Barrow"},
		{"active id", r.Cast.Active.ID, "hagrid"},
		{"other name", r.Cast.Others[0].Name, "Tobin"},
		{"place", r.Status.Place, "Headmaster Orrin's office"},
		{"time", r.Status.Time, "dusk"},
		{"summary", r.Status.Summary, "베르가 종소리를 들었다"},
		{"question", r.Question.Text, "What does Ver do?"},
		{"hint", r.Question.InputHint, "Tell Corvin"},
		{"end title", r.End.Title, "Vesper Rises"},
		{"end summary", r.End.Summary, "베인가 웃었다"},
		{"end id", r.End.EndingID, "E_BAD_01"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}

	// nil replies are ignored
	filter.FilterReply(nil)
}

func TestPreserveCase(t *testing.T) {
	tests := []struct {
		original    string
		replacement string
		expected    string
	}{
		{"HARRY", "ver", "VER"},
		{"harry", "Ver", "ver"},
		{"Harry", "ver", "Ver"},
		{"해리", "베르", "베르"},
		{"", "Ver", "Ver"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			if got := preserveCase(tt.original, tt.replacement); got != tt.expected {
				t.Errorf("preserveCase(%q, %q) = %q, want %q", tt.original, tt.replacement, got, tt.expected)
			}
		})
	}
}
