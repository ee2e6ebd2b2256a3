package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/story-proxy/pkg/art"
	"github.com/jwebster45206/story-proxy/pkg/prompts"
	"github.com/jwebster45206/story-proxy/pkg/state"
	"github.com/jwebster45206/story-proxy/pkg/textfilter"
)

func main() {
	saveMode := flag.Bool("save", false, "validate a save snapshot instead of a model reply")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-save] <file.json>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	filename := flag.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file %s: %v\n", filename, err)
		os.Exit(1)
	}

	validator := NewValidator()
	fmt.Printf("Validating %s...\n", filename)
	if *saveMode {
		err = validator.ValidateSave(data)
	} else {
		err = validator.ValidateReply(string(data))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	if *saveMode {
		fmt.Println("Save file is valid!")
	} else {
		fmt.Println("Reply is valid!")
	}
}

// Validator checks model replies and save blobs beyond what the engine
// needs to accept them: id formats, the ending catalog and canon names.
type Validator struct {
	canon  *textfilter.CanonFilter
	errors []string
}

func NewValidator() *Validator {
	return &Validator{canon: textfilter.NewCanonFilter()}
}

// ValidateReply decodes raw model output the way the engine does, then
// applies the content checks.
func (v *Validator) ValidateReply(raw string) error {
	v.errors = nil

	r, err := state.DecodeReply(raw)
	if err != nil {
		return err
	}
	v.validateReply(r, "reply")

	return v.result()
}

// ValidateSave restores a snapshot onto a fresh game and checks the result.
func (v *Validator) ValidateSave(data []byte) error {
	v.errors = nil

	gs := state.NewGameState()
	if err := gs.MergeSnapshot(data); err != nil {
		return err
	}

	if gs.Turn < 0 {
		v.addError(fmt.Sprintf("turn %d is negative", gs.Turn))
	}
	v.validateChapter("chapter", gs.Chapter)
	for _, flag := range gs.Flags {
		v.validateIDFormat("flag", flag)
	}
	if n := len(gs.Memory.Recent); n > state.RecentLimit {
		v.addError(fmt.Sprintf("memory holds %d recent entries, limit is %d", n, state.RecentLimit))
	}
	if n := len([]rune(gs.Memory.Summary)); n > state.SummaryLimit {
		v.addError(fmt.Sprintf("memory summary is %d characters, limit is %d", n, state.SummaryLimit))
	}
	for _, e := range gs.Memory.Recent {
		if e.Role != state.RoleUser && e.Role != state.RoleAI {
			v.addError(fmt.Sprintf("memory entry has unknown role '%s'", e.Role))
		}
	}
	for id, e := range gs.Endings {
		v.validateEndingID("endings key", id)
		if !e.Unlocked {
			v.addError(fmt.Sprintf("ending %s is stored but not unlocked", id))
		}
		if e.AtTurn > gs.Turn {
			v.addError(fmt.Sprintf("ending %s was reached at turn %d, after the current turn %d", id, e.AtTurn, gs.Turn))
		}
	}
	if gs.LastAI != nil {
		v.validateReply(gs.LastAI, "lastAI")
	}

	return v.result()
}

func (v *Validator) validateReply(r *state.TurnResult, where string) {
	if r.Chapter != "" {
		v.validateChapter(where+" chapter", r.Chapter)
	}

	if a := r.Cast.Active; a != nil {
		v.validateCharacter(where+" cast.active", *a)
	}
	for i, c := range r.Cast.Others {
		v.validateCharacter(fmt.Sprintf("%s cast.others[%d]", where, i), c)
	}

	if q := r.Question; q != nil {
		if strings.TrimSpace(q.Text) == "" {
			v.addError(where + " question has no text")
		}
		if n := q.MaxChars.Int(); q.MaxChars.Valid && n != state.QuestionMaxChars {
			v.addError(fmt.Sprintf("%s question max_chars is %d, expected %d", where, n, state.QuestionMaxChars))
		}
	}

	if r.End != nil && r.End.EndingID != "" {
		v.validateEndingID(where+" end.endingId", r.End.EndingID)
	}

	for _, field := range []struct{ name, text string }{
		{"narration", r.Narration},
		{"status.place", r.Status.Place},
		{"status.summary", r.Status.Summary},
	} {
		if v.canon.ContainsCanon(field.text) {
			v.addError(fmt.Sprintf("%s %s mentions a canon character name", where, field.name))
		}
	}
}

func (v *Validator) validateCharacter(field string, c state.Character) {
	if c.ID == "" {
		v.addError(field + " has no id")
		return
	}
	v.validateIDFormat(field+" id", c.ID)
	if c.Expression != "" && c.Expression != art.FallbackExpression {
		v.validateIDFormat(field+" expression", c.Expression)
	}
	if v.canon.ContainsCanon(c.Name) {
		v.addError(fmt.Sprintf("%s name '%s' is a canon character name", field, c.Name))
	}
}

func (v *Validator) validateEndingID(field, id string) {
	if !slices.Contains(prompts.EndingIDs, id) {
		v.addError(fmt.Sprintf("%s '%s' is not in the ending catalog", field, id))
	}
}

func (v *Validator) validateChapter(field, chapter string) {
	if !validChapterRegex.MatchString(chapter) {
		v.addError(fmt.Sprintf("%s '%s' should look like BOOK1_CH01", field, chapter))
	}
}

func (v *Validator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *Validator) result() error {
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

var (
	validIDRegex      = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validChapterRegex = regexp.MustCompile(`^BOOK[0-9]+_CH[0-9]{2}$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
