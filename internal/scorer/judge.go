package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mpelletier/agentshift/internal/llm"
	"github.com/mpelletier/agentshift/internal/model"
)

const judgeSystemPrompt = `You are an exacting quality evaluator. You compare a candidate answer
against a reference answer for the same input and score it on three
dimensions, each from 0.0 to 1.0:

- correctness: factual agreement with the reference answer
- completeness: coverage of the points the reference answer makes
- format: structural and stylistic match (length, tone, layout)

Respond with ONLY a JSON object of this exact shape:

{"scores": {"correctness": 0.0, "completeness": 0.0, "format": 0.0},
 "feedback": "one or two sentences on the main gap",
 "tags": ["short_snake_case_issue_tags"]}`

// Judge scores candidate outputs by asking an evaluator model.
type Judge struct {
	provider llm.Provider
	minimums map[string]float64
}

var _ Scorer = (*Judge)(nil)

// NewJudge builds a judge-backed scorer. nil minimums selects the defaults.
func NewJudge(provider llm.Provider, minimums map[string]float64) *Judge {
	if minimums == nil {
		minimums = DefaultMinimums()
	}
	return &Judge{provider: provider, minimums: minimums}
}

type judgeReply struct {
	Scores   map[string]float64 `json:"scores"`
	Feedback string             `json:"feedback"`
	Tags     []string           `json:"tags"`
}

// Score asks the judge model for a verdict on one case.
func (j *Judge) Score(ctx context.Context, ref model.ReferenceCase, candidateOutput string) (model.CaseVerdict, error) {
	user := buildJudgePrompt(ref, candidateOutput)

	resp, err := j.provider.Generate(ctx, judgeSystemPrompt, user)
	if err != nil {
		return model.CaseVerdict{}, err
	}

	reply, err := parseJudgeReply(resp.Text)
	if err != nil {
		return model.CaseVerdict{}, fmt.Errorf("case %s: %w", ref.ID, err)
	}

	for dim, score := range reply.Scores {
		reply.Scores[dim] = clamp01(score)
	}

	return model.CaseVerdict{
		CaseID:      ref.ID,
		Score:       Aggregate(reply.Scores),
		Passed:      Passed(reply.Scores, j.minimums),
		Dimensions:  reply.Scores,
		Feedback:    reply.Feedback,
		FailureTags: reply.Tags,
	}, nil
}

func buildJudgePrompt(ref model.ReferenceCase, candidateOutput string) string {
	var b strings.Builder
	b.WriteString("INPUT:\n")
	b.WriteString(ref.Input)
	b.WriteString("\n\nREFERENCE ANSWER:\n")
	b.WriteString(ref.ReferenceOutput)
	b.WriteString("\n\nCANDIDATE ANSWER:\n")
	b.WriteString(candidateOutput)
	return b.String()
}

func parseJudgeReply(text string) (judgeReply, error) {
	cleaned := cleanJSON([]byte(text))

	var reply judgeReply
	if err := json.Unmarshal(cleaned, &reply); err != nil {
		return judgeReply{}, fmt.Errorf("decode judge reply: %w", err)
	}
	if len(reply.Scores) == 0 {
		return judgeReply{}, fmt.Errorf("judge reply contained no scores")
	}
	return reply, nil
}

// cleanJSON strips markdown code fences and surrounding whitespace. Judge
// models often wrap JSON in ```json ... ``` blocks.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}

	if bytes.HasPrefix(s, []byte("```")) {
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}

	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
