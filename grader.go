package szprechal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Grader evaluates learner submissions using the OpenAI API.
type Grader struct {
	client *openai.Client
	logger *SessionLogger
}

// NewGrader creates a new grader with an OpenAI client.
func NewGrader(apiKey string) *Grader {
	return &Grader{
		client: openai.NewClient(apiKey),
	}
}

// NewGraderWithClient creates a grader around an existing client.
func NewGraderWithClient(client *openai.Client) *Grader {
	return &Grader{client: client}
}

// SetLogger attaches a session logger for model-traffic logging.
func (g *Grader) SetLogger(logger *SessionLogger) {
	g.logger = logger
}

// GradeSubmission grades a written answer against the active challenge.
// Unlike content generation there is no fallback: a malformed grading
// response propagates to the caller.
func (g *Grader) GradeSubmission(ctx context.Context, challenge *Challenge, answer string, difficulty Difficulty, mode Mode) (*Feedback, error) {
	if challenge == nil {
		return nil, fmt.Errorf("no challenge to grade against")
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("empty answer")
	}

	prompt := buildGradingPrompt(challenge, answer, difficulty, mode)
	if g.logger != nil {
		g.logger.LogRequest("Grader", prompt)
	}

	feedback, err := g.requestVerdict(ctx, prompt,
		"You are a strict but encouraging German teacher grading a Polish learner. Respond in Polish.")
	if err != nil {
		return nil, err
	}

	if g.logger != nil {
		g.logger.LogVerdict(mode, feedback.IsCorrect, feedback.Score)
	}
	return feedback, nil
}

// GradeSpeech grades a recorded pronunciation attempt. The clip is first
// transcribed, then the transcript is judged against the reference text.
// The returned feedback always carries at least one correction entry.
func (g *Grader) GradeSpeech(ctx context.Context, referenceText string, audio []byte) (*Feedback, error) {
	if strings.TrimSpace(referenceText) == "" {
		return nil, fmt.Errorf("no reference text")
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty recording")
	}

	transcription, err := g.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: "recording.webm",
		Language: "de",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe recording: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("A Polish learner was asked to read this German sentence aloud:\n")
	sb.WriteString(fmt.Sprintf("Reference: %q\n", referenceText))
	sb.WriteString(fmt.Sprintf("What the speech recognizer heard: %q\n\n", transcription.Text))
	sb.WriteString("Judge the pronunciation attempt. Score 0-100. List concrete pronunciation corrections; ")
	sb.WriteString("always provide at least one correction or pronunciation tip, even for a perfect attempt.\n")
	sb.WriteString("Use the submit_feedback tool to return your verdict.")

	prompt := sb.String()
	if g.logger != nil {
		g.logger.LogRequest("Grader", prompt)
	}

	feedback, err := g.requestVerdict(ctx, prompt,
		"You are a German pronunciation coach for Polish speakers. Respond in Polish.")
	if err != nil {
		return nil, err
	}

	// The speech contract guarantees a non-empty correction list.
	if len(feedback.Corrections) == 0 {
		feedback.Corrections = []string{feedback.Explanation}
	}

	if g.logger != nil {
		g.logger.LogVerdict(ModeSpeech, feedback.IsCorrect, feedback.Score)
	}
	return feedback, nil
}

// requestVerdict issues one grading call with the shared feedback schema.
func (g *Grader) requestVerdict(ctx context.Context, prompt, systemPrompt string) (*Feedback, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: generationModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_feedback",
						Description: "Submit the grading verdict",
						Parameters:  feedbackSchema(),
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_feedback",
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from grading model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in grading response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_feedback" {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}
	if g.logger != nil {
		g.logger.LogResponse("Grader", toolCall.Function.Arguments)
	}

	var args struct {
		IsCorrect           bool     `json:"isCorrect"`
		Score               int      `json:"score"`
		Corrections         []string `json:"corrections"`
		Explanation         string   `json:"explanation"`
		CorrectVersion      string   `json:"correctVersion"`
		AlternativeVersions []string `json:"alternativeVersions"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("failed to parse grading arguments: %w", err)
	}

	return &Feedback{
		IsCorrect:           args.IsCorrect,
		Score:               args.Score,
		Corrections:         args.Corrections,
		Explanation:         args.Explanation,
		CorrectVersion:      args.CorrectVersion,
		AlternativeVersions: args.AlternativeVersions,
	}, nil
}

func buildGradingPrompt(challenge *Challenge, answer string, difficulty Difficulty, mode Mode) string {
	var sb strings.Builder

	if mode == ModeCloze {
		sb.WriteString("Grade a German gap-fill answer.\n")
		sb.WriteString(fmt.Sprintf("Sentence: %q\n", challenge.ClozeSentence))
		sb.WriteString(fmt.Sprintf("Tense: %s\n", challenge.Tense))
		sb.WriteString(fmt.Sprintf("Learner's answer: %q\n", answer))
	} else {
		sb.WriteString("Grade a Polish-to-German translation.\n")
		sb.WriteString(fmt.Sprintf("Original (PL): %q\n", challenge.Polish))
		sb.WriteString(fmt.Sprintf("Learner's translation (DE): %q\n", answer))
	}

	sb.WriteString(fmt.Sprintf("Learner level: %s\n\n", difficulty))
	sb.WriteString("Score 0-100. Accept natural variants; list concrete corrections for mistakes.\n")
	sb.WriteString("Use the submit_feedback tool to return your verdict.")
	return sb.String()
}

// feedbackSchema is the shared tool-parameter schema for grading verdicts.
func feedbackSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"isCorrect": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the answer is acceptable as-is",
			},
			"score": map[string]interface{}{
				"type":        "integer",
				"description": "Quality score from 0 to 100",
			},
			"corrections": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "string",
				},
				"description": "Concrete corrections for mistakes",
			},
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "Short explanation of the verdict, in Polish",
			},
			"correctVersion": map[string]interface{}{
				"type":        "string",
				"description": "The corrected or reference version of the answer",
			},
			"alternativeVersions": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "string",
				},
				"description": "Other acceptable versions",
			},
		},
		"required": []string{"isCorrect", "score", "corrections", "explanation", "correctVersion"},
	}
}
