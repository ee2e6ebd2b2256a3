package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-proxy/internal/storage"
	"github.com/jwebster45206/story-proxy/pkg/engine"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites through a turn engine that talks to a story
// proxy over HTTP.
type Runner struct {
	BaseURL           string
	Timeout           time.Duration
	Store             storage.Storage
	Logger            func(format string, args ...interface{})
	SlogLogger        *slog.Logger
	ErrorHandlingMode ErrorHandlingMode

	// Script receives each step's scripted model reply before the step
	// runs; steps without one get DefaultReply. Runs against a live model
	// leave Script nil.
	Script       func(reply string)
	DefaultReply string
}

// NewRunner creates a new test runner
func NewRunner(baseURL string, store storage.Storage) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Timeout:           30 * time.Second,
		Store:             store,
		Logger:            func(string, ...interface{}) {},
		SlogLogger:        slog.Default(),
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// Scripted reports whether replies come from the suites rather than a model.
func (r *Runner) Scripted() bool {
	return r.Script != nil
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

func (r *Runner) newEngine(saveKey string, seed *state.GameState) *engine.Engine {
	opts := []engine.Option{engine.WithSaveKey(saveKey)}
	if seed != nil {
		opts = append(opts, engine.WithState(seed.Clone()))
	}
	return engine.New(engine.NewHTTPProxy(r.BaseURL, r.Timeout, r.SlogLogger), r.Store, r.SlogLogger, opts...)
}

// RunSuite executes a complete test suite on a fresh engine and save slot.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
		SaveKey: "itest_" + uuid.NewString(),
	}

	eng := r.newEngine(result.SaveKey, suite.SeedState)
	defer func() {
		_ = eng.ClearSave(context.Background())
	}()

	for i, step := range suite.Steps {
		if step.Name == "" {
			step.Name = fmt.Sprintf("step %d", i+1)
		}
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		stepResult, eng = r.runStep(ctx, eng, result.SaveKey, suite, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes one step and returns the engine later steps should use.
func (r *Runner) runStep(ctx context.Context, eng *engine.Engine, saveKey string, suite TestSuite, step TestStep) (TestResult, *engine.Engine) {
	start := time.Now()
	res := TestResult{TestName: suite.Name, StepName: step.Name}

	if step.Input == ReloadSavePrompt {
		res.IsReload = true
		fresh := r.newEngine(saveKey, nil)
		loaded, err := fresh.Continue(ctx)
		switch {
		case err != nil:
			res.Error = fmt.Errorf("failed to reload save: %w", err)
		case !loaded:
			res.Error = errors.New("no save found to reload")
		default:
			res.Error = r.checkExpectations(step.Expectations, fresh.State(), fresh.LastResult())
		}
		res.Success = res.Error == nil
		res.Duration = time.Since(start)
		return res, fresh
	}

	if r.Script != nil {
		reply, ok := step.ScriptedReply()
		if !ok {
			reply = r.DefaultReply
		}
		r.Script(reply)
	}

	pre := eng.State()
	var (
		turn *state.TurnResult
		err  error
	)
	if step.Input == StartGamePrompt {
		turn, err = eng.StartNewGame(ctx)
	} else {
		turn, err = eng.ExecuteTurn(ctx, step.Input)
	}
	res.Duration = time.Since(start)

	if step.Expectations.Error != "" {
		res.Error = checkFailure(step.Expectations.Error, err, pre, eng.State())
		res.Success = res.Error == nil
		return res, eng
	}
	if err != nil {
		res.Error = fmt.Errorf("turn failed: %w", err)
		return res, eng
	}

	res.NarrationText = turn.Narration
	res.Error = r.checkExpectations(step.Expectations, eng.State(), turn)
	res.Success = res.Error == nil
	return res, eng
}

// checkFailure verifies a step failed the expected way and changed nothing.
func checkFailure(kind string, err error, pre, post *state.GameState) error {
	if err == nil {
		return fmt.Errorf("expected %s error, turn succeeded", kind)
	}

	var (
		unusable  *state.UnusableReplyError
		malformed *state.MalformedReplyError
		proxyErr  *engine.ProxyError
		matched   bool
	)
	switch kind {
	case "unusable":
		matched = errors.As(err, &unusable)
	case "malformed":
		matched = errors.As(err, &malformed)
	case "proxy":
		matched = errors.As(err, &proxyErr)
	default:
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if !matched {
		return fmt.Errorf("expected %s error, got %T: %v", kind, err, err)
	}
	if !reflect.DeepEqual(pre, post) {
		return errors.New("failed turn changed the game state")
	}
	return nil
}

// checkExpectations validates the test expectations against the state after
// a step.
func (r *Runner) checkExpectations(exp Expectations, post *state.GameState, turn *state.TurnResult) error {
	if exp.Turn != nil && post.Turn != *exp.Turn {
		return fmt.Errorf("expected turn %d, got %d", *exp.Turn, post.Turn)
	}

	if exp.Chapter != nil && post.Chapter != *exp.Chapter {
		return fmt.Errorf("expected chapter %s, got %s", *exp.Chapter, post.Chapter)
	}

	if exp.Stats != nil && post.Stats != *exp.Stats {
		return fmt.Errorf("expected stats %+v, got %+v", *exp.Stats, post.Stats)
	}

	for _, flag := range exp.FlagsContain {
		if !post.HasFlag(flag) {
			return fmt.Errorf("expected flag '%s', flags are %v", flag, post.Flags)
		}
	}
	for _, flag := range exp.FlagsAbsent {
		if post.HasFlag(flag) {
			return fmt.Errorf("expected flag '%s' to be absent, flags are %v", flag, post.Flags)
		}
	}
	for _, id := range exp.EndingsUnlocked {
		if e, ok := post.Endings[id]; !ok || !e.Unlocked {
			return fmt.Errorf("expected ending '%s' to be unlocked, endings are %v", id, post.EndingIDs())
		}
	}

	if exp.IsEnded != nil && post.Ended() != *exp.IsEnded {
		return fmt.Errorf("expected is_ended to be %t, got %t", *exp.IsEnded, post.Ended())
	}

	if exp.MemoryRecent != nil && len(post.Memory.Recent) != *exp.MemoryRecent {
		return fmt.Errorf("expected %d recent memory entries, got %d", *exp.MemoryRecent, len(post.Memory.Recent))
	}

	narration := ""
	if turn != nil {
		narration = turn.Narration
	}

	lowerNarration := strings.ToLower(narration)
	for _, expectedText := range exp.NarrationContains {
		if !strings.Contains(lowerNarration, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected narration to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.NarrationNotContains {
		if strings.Contains(lowerNarration, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected narration to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.NarrationRegex != "" {
		matched, err := regexp.MatchString(exp.NarrationRegex, narration)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("narration didn't match regex pattern: %s", exp.NarrationRegex)
		}
	}

	if exp.NarrationMinLength != nil && len([]rune(narration)) < *exp.NarrationMinLength {
		return fmt.Errorf("expected narration length >= %d, got %d", *exp.NarrationMinLength, len([]rune(narration)))
	}

	return nil
}
