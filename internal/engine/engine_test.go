package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mpelletier/agentshift/internal/llm"
	"github.com/mpelletier/agentshift/internal/logger"
	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policies/exhaustive"
	"github.com/mpelletier/agentshift/internal/policies/patience"
	"github.com/mpelletier/agentshift/internal/reviser"
	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func testCases(n int) []model.ReferenceCase {
	cases := make([]model.ReferenceCase, 0, n)
	for i := 0; i < n; i++ {
		cases = append(cases, model.ReferenceCase{
			ID:              fmt.Sprintf("case-%d", i),
			Input:           fmt.Sprintf("input %d", i),
			ReferenceOutput: fmt.Sprintf("reference %d", i),
		})
	}
	return cases
}

// scriptedScorer passes the first passPerIteration[i] cases of iteration i.
// Scoring is sequential in case order, so call counting is deterministic.
type scriptedScorer struct {
	mu               sync.Mutex
	casesPerIter     int
	passPerIteration []int
	calls            int
}

func (s *scriptedScorer) Score(ctx context.Context, ref model.ReferenceCase, candidateOutput string) (model.CaseVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter := s.calls / s.casesPerIter
	idx := s.calls % s.casesPerIter
	s.calls++

	if iter >= len(s.passPerIteration) {
		iter = len(s.passPerIteration) - 1
	}
	passed := idx < s.passPerIteration[iter]

	score := 0.0
	if passed {
		score = 1.0
	}
	return model.CaseVerdict{
		CaseID:     ref.ID,
		Score:      score,
		Passed:     passed,
		Dimensions: map[string]float64{"correctness": score},
		Feedback:   "scripted",
	}, nil
}

// countingReviser returns "rev 1", "rev 2", ... and records its inputs.
type countingReviser struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingReviser) Revise(ctx context.Context, instructions string, failures []reviser.FailingCase) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.calls++
	return fmt.Sprintf("rev %d", r.calls), nil
}

func echoAgent(name string) llm.Agent {
	return llm.Agent{
		Name: name,
		Provider: llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
			return llm.Response{Text: "candidate for " + user}, nil
		}),
		Instructions: "original instructions",
	}
}

func baseRequest(t *testing.T, cases int, passPerIteration []int) (Request, *countingReviser) {
	t.Helper()

	rev := &countingReviser{}
	req := Request{
		Source:  llm.Agent{Name: "expensive", Instructions: "original instructions"},
		Target:  echoAgent("cheap"),
		Cases:   testCases(cases),
		Budget:  model.Budget{Threshold: 0.75, MaxIterations: 5},
		Policy:  exhaustive.New(),
		Scorer:  &scriptedScorer{casesPerIter: cases, passPerIteration: passPerIteration},
		Reviser: rev,
	}
	return req, rev
}

func TestMigrateExhaustiveEndToEnd(t *testing.T) {
	t.Parallel()

	// Success sequence 0.25, 0.5, 0.75, 1.0, 0.5: the exhaustive policy runs
	// all five iterations even after the perfect iteration 4, and iteration 4
	// is still the reported best.
	req, rev := baseRequest(t, 4, []int{1, 2, 3, 4, 2})

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Equal(t, 5, result.Iterations)
	require.Equal(t, 4, result.BestIteration)
	require.InDelta(t, 1.0, result.FinalSuccessRate, 1e-9)
	require.True(t, result.Success)
	require.Equal(t, model.OutcomeThresholdMet, result.Outcome)
	require.Equal(t, "original instructions", result.OriginalInstructions)
	// Iteration 4 ran with the third revision.
	require.Equal(t, "rev 3", result.FinalInstructions)
	// The reviser runs after every iteration except the last.
	require.Equal(t, 4, rev.calls)
}

func TestMigratePatienceStopsEarly(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 4, []int{2, 2, 2, 2, 2})
	pol, err := patience.New(2, 0.05)
	require.NoError(t, err)
	req.Policy = pol
	req.Budget.MaxIterations = 10

	result, runErr := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, runErr)

	// Iteration 1 improves from nothing; iterations 2 and 3 exhaust a
	// patience of 2.
	require.Equal(t, 3, result.Iterations)
	require.False(t, result.Success)
	require.Equal(t, model.OutcomeBudgetExhausted, result.Outcome)
	require.InDelta(t, 0.5, result.FinalSuccessRate, 1e-9)
}

func TestMigrateRunawayPolicyCappedByGuard(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 2, []int{1})
	req.Policy = &runawayPolicy{}
	req.Budget.MaxIterations = 3

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 3, result.Iterations)
}

type runawayPolicy struct{}

func (p *runawayPolicy) Name() string            { return "runaway" }
func (p *runawayPolicy) Initialize(model.Budget) {}
func (p *runawayPolicy) ShouldContinue(int, float64, model.Budget, model.History) model.Decision {
	return model.Continue("always")
}
func (p *runawayPolicy) BestResult(history model.History) (model.BestAttempt, bool) {
	return history.Best()
}

func TestMigrateSingleCaseFailureBecomesVerdict(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 2, []int{2})
	req.Budget.MaxIterations = 1
	req.Target.Provider = llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		if user == "input 0" {
			return llm.Response{}, errors.New("connection reset")
		}
		return llm.Response{Text: "fine"}, nil
	})

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, err)

	// One case is a synthetic failure, the other a real pass.
	require.InDelta(t, 0.5, result.FinalSuccessRate, 1e-9)
}

func TestMigrateEmptyBatchIsFatal(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 3, []int{3})
	req.Target.Provider = llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		return llm.Response{}, errors.New("agent unreachable")
	})

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.Error(t, err)

	var iterErr *agentshifterrors.IterationError
	require.ErrorAs(t, err, &iterErr)
	require.Equal(t, 1, iterErr.Iteration)
	// No iteration completed, so there is no result to report.
	require.Nil(t, result)
}

func TestMigrateReviserFailureReturnsBestWithWarning(t *testing.T) {
	t.Parallel()

	req, rev := baseRequest(t, 4, []int{2})
	rev.err = errors.New("model offline")

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.Error(t, err)

	var revErr *agentshifterrors.ReviserError
	require.ErrorAs(t, err, &revErr)
	require.Equal(t, 1, revErr.Iteration)

	require.NotNil(t, result)
	require.Equal(t, model.OutcomeAborted, result.Outcome)
	require.NotEmpty(t, result.Warning)
	require.Equal(t, "original instructions", result.FinalInstructions)
	require.InDelta(t, 0.5, result.FinalSuccessRate, 1e-9)
}

func TestMigrateCancellationBetweenIterations(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 2, []int{1, 1, 1, 1, 1})
	req.Budget.MaxIterations = 10

	ctx, cancel := context.WithCancel(context.Background())
	req.Sinks = []ProgressSink{SinkFunc(func(event model.ProgressEvent) {
		if event.Iteration == 2 {
			cancel()
		}
	})}

	result, err := New(testLogger(t)).Migrate(ctx, req)
	require.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, result)
	require.Equal(t, model.OutcomeAborted, result.Outcome)
	require.Equal(t, 2, result.Iterations)
}

func TestMigrateSinkPanicsAreIsolated(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 2, []int{2})
	req.Budget.MaxIterations = 2

	var events []model.ProgressEvent
	var mu sync.Mutex
	req.Sinks = []ProgressSink{
		SinkFunc(func(model.ProgressEvent) { panic("rogue sink") }),
		SinkFunc(func(event model.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, event)
		}),
	}

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, events, 2)
	require.Equal(t, 1, events[0].Iteration)
	require.Equal(t, 2, events[1].Iteration)
}

func TestMigrateStalledCaseTimesOut(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 2, []int{2})
	req.Budget.MaxIterations = 1
	req.CaseTimeout = 20 * time.Millisecond
	req.Target.Provider = llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		if user == "input 0" {
			<-ctx.Done()
			return llm.Response{}, ctx.Err()
		}
		return llm.Response{Text: "fast"}, nil
	})

	result, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, err)
	require.InDelta(t, 0.5, result.FinalSuccessRate, 1e-9)
}

func TestMigrateBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	req, _ := baseRequest(t, 12, []int{12})
	req.Budget.MaxIterations = 1
	req.Parallel = 3
	req.Target.Provider = llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return llm.Response{Text: "out"}, nil
	})

	_, err := New(testLogger(t)).Migrate(context.Background(), req)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.LessOrEqual(t, maxInFlight, 3)
	require.Greater(t, maxInFlight, 1)
}

func TestMigrateValidatesRequest(t *testing.T) {
	t.Parallel()

	eng := New(testLogger(t))

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{name: "no cases", mutate: func(r *Request) { r.Cases = nil }},
		{name: "zero iterations", mutate: func(r *Request) { r.Budget.MaxIterations = 0 }},
		{name: "threshold above one", mutate: func(r *Request) { r.Budget.Threshold = 1.5 }},
		{name: "nil policy", mutate: func(r *Request) { r.Policy = nil }},
		{name: "nil scorer", mutate: func(r *Request) { r.Scorer = nil }},
		{name: "nil reviser", mutate: func(r *Request) { r.Reviser = nil }},
		{name: "no target provider", mutate: func(r *Request) { r.Target.Provider = nil }},
		{name: "duplicate case ids", mutate: func(r *Request) { r.Cases[1].ID = r.Cases[0].ID }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, _ := baseRequest(t, 2, []int{2})
			tt.mutate(&req)

			_, err := eng.Migrate(context.Background(), req)
			require.Error(t, err)

			var valErr *agentshifterrors.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}

func TestScoreBatchOneShot(t *testing.T) {
	t.Parallel()

	req, _ := baseRequest(t, 4, []int{3})

	verdicts, rate, err := New(testLogger(t)).ScoreBatch(context.Background(), req, "candidate instructions")
	require.NoError(t, err)
	require.Len(t, verdicts, 4)
	require.InDelta(t, 0.75, rate, 1e-9)
}
