package szprechal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	generationModel = openai.GPT4o
	// Meme lookup needs current internet culture, so it goes through the
	// search-augmented model instead of the plain one.
	memeModel  = "gpt-4o-search-preview"
	imageModel = openai.CreateImageModelDallE3
)

// ChallengeMaker generates practice challenges using the OpenAI API.
type ChallengeMaker struct {
	client *openai.Client
	logger *SessionLogger
}

// NewChallengeMaker creates a new challenge maker with an OpenAI client.
func NewChallengeMaker(apiKey string) *ChallengeMaker {
	return &ChallengeMaker{
		client: openai.NewClient(apiKey),
	}
}

// NewChallengeMakerWithClient creates a challenge maker around an existing
// client. Used when the caller needs a custom API base URL.
func NewChallengeMakerWithClient(client *openai.Client) *ChallengeMaker {
	return &ChallengeMaker{client: client}
}

// SetLogger attaches a session logger for model-traffic logging.
func (cm *ChallengeMaker) SetLogger(logger *SessionLogger) {
	cm.logger = logger
}

// fallbackChallenge is returned whenever generated content cannot be parsed.
// Content generation must never hard-fail the caller.
func fallbackChallenge() *Challenge {
	return &Challenge{
		Polish:     "Samochód",
		Difficulty: DifficultyA1,
		Topic:      "Podstawy",
	}
}

// truncateExclusions keeps only the most recent entries so the prompt stays
// bounded no matter how long the mastered list grows.
func truncateExclusions(items []string) []string {
	if len(items) > ExclusionLimit {
		return items[len(items)-ExclusionLimit:]
	}
	return items
}

// GenerateChallenge generates one challenge for the requested mode. Transport
// errors propagate; unparsable model output is replaced with a fixed fallback
// challenge instead of an error.
func (cm *ChallengeMaker) GenerateChallenge(ctx context.Context, req GenerationRequest) (*Challenge, error) {
	if !req.Difficulty.Valid() {
		return nil, fmt.Errorf("invalid difficulty: %q", req.Difficulty)
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("invalid mode: %q", req.Mode)
	}
	if req.Mode == ModeContext && strings.TrimSpace(req.TargetWord) == "" {
		return nil, fmt.Errorf("context mode requires a target word")
	}

	if req.Mode == ModeMemes {
		return cm.generateMeme(ctx, req)
	}

	prompt := cm.buildPrompt(req)
	if cm.logger != nil {
		cm.logger.LogRequest("ChallengeMaker", prompt)
	}

	resp, err := cm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: generationModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a German language tutor for Polish speakers. Generate one practice exercise exactly as requested.",
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
						Name:        "submit_challenge",
						Description: "Submit the generated practice exercise",
						Parameters:  challengeSchema(req.Mode),
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_challenge",
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}

	challenge := cm.parseChallenge(resp, req)

	if req.Mode == ModeWords && challenge.Polish != "" {
		// Dependent illustration call. Failure is non-fatal.
		imageURL, err := cm.generateImage(ctx, fmt.Sprintf("Minimalist illustration of %q for language learning.", challenge.Polish))
		if err != nil {
			log.Printf("Word image generation failed: %v", err)
		} else {
			challenge.ImageURL = imageURL
		}
	}

	if cm.logger != nil {
		cm.logger.LogChallenge(req.Mode, challenge.Topic)
	}
	return challenge, nil
}

// parseChallenge extracts the tool-call arguments into a Challenge. Any shape
// problem yields the fallback challenge.
func (cm *ChallengeMaker) parseChallenge(resp openai.ChatCompletionResponse, req GenerationRequest) *Challenge {
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		VerboseLog("No tool call in generation response, using fallback")
		return fallbackChallenge()
	}

	toolCall := resp.Choices[0].Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_challenge" {
		VerboseLog("Unexpected tool call %q, using fallback", toolCall.Function.Name)
		return fallbackChallenge()
	}
	if cm.logger != nil {
		cm.logger.LogResponse("ChallengeMaker", toolCall.Function.Arguments)
	}

	var args struct {
		Polish        string `json:"polish"`
		German        string `json:"german"`
		Topic         string `json:"topic"`
		Difficulty    string `json:"difficulty"`
		ClozeSentence string `json:"clozeSentence"`
		CorrectAnswer string `json:"correctAnswer"`
		Tense         string `json:"tense"`
		Sentences     []struct {
			German string `json:"german"`
			Polish string `json:"polish"`
		} `json:"sentences"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		log.Printf("Failed to parse generation arguments: %v", err)
		return fallbackChallenge()
	}

	difficulty := Difficulty(args.Difficulty)
	if !difficulty.Valid() {
		difficulty = req.Difficulty
	}

	challenge := &Challenge{
		Polish:     args.Polish,
		Difficulty: difficulty,
		Topic:      args.Topic,
	}

	switch req.Mode {
	case ModeSentences:
		if challenge.Polish == "" {
			return fallbackChallenge()
		}
	case ModeWords:
		if challenge.Polish == "" {
			return fallbackChallenge()
		}
		challenge.IsWord = true
	case ModeCloze:
		if args.ClozeSentence == "" || args.CorrectAnswer == "" {
			return fallbackChallenge()
		}
		challenge.ClozeSentence = args.ClozeSentence
		challenge.CorrectAnswer = args.CorrectAnswer
		challenge.Tense = Tense(args.Tense)
		if !challenge.Tense.Valid() {
			challenge.Tense = req.Tense
		}
	case ModeSpeech:
		if args.German == "" {
			return fallbackChallenge()
		}
		challenge.German = args.German
	case ModeContext:
		if len(args.Sentences) == 0 {
			return fallbackChallenge()
		}
		challenge.TargetWord = req.TargetWord
		challenge.ContextSentences = make([]ContextSentence, 0, len(args.Sentences))
		for _, s := range args.Sentences {
			challenge.ContextSentences = append(challenge.ContextSentences, ContextSentence{
				German: s.German,
				Polish: s.Polish,
			})
		}
	}

	return challenge
}

// generateMeme issues the search-augmented meme request. Unlike the standard
// path, a malformed response propagates as an error.
func (cm *ChallengeMaker) generateMeme(ctx context.Context, req GenerationRequest) (*Challenge, error) {
	var sb strings.Builder
	sb.WriteString("Find a popular, iconic or currently trending German internet meme and prepare a write-up for a Polish learner of German.\n\n")
	sb.WriteString("Respond with a single JSON object with these fields:\n")
	sb.WriteString("- memeTitle: short name of the meme\n")
	sb.WriteString("- memeGermanText: the German text of the meme\n")
	sb.WriteString("- polish: Polish translation of the German text\n")
	sb.WriteString("- memeExplanation: why it is funny, in Polish\n")
	sb.WriteString("- memeContext: the cultural background, in Polish\n")
	sb.WriteString("- imagePrompt: an English description for illustrating the meme\n")
	sb.WriteString("- topic: one-word category\n")
	sb.WriteString(fmt.Sprintf("- difficulty: %s\n", req.Difficulty))
	writeExclusions(&sb, req.Exclusions)

	prompt := sb.String()
	if cm.logger != nil {
		cm.logger.LogRequest("ChallengeMaker", prompt)
	}

	resp, err := cm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: memeModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate meme: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from meme model")
	}

	content := resp.Choices[0].Message.Content
	if cm.logger != nil {
		cm.logger.LogResponse("ChallengeMaker", content)
	}

	var args struct {
		MemeTitle       string `json:"memeTitle"`
		MemeGermanText  string `json:"memeGermanText"`
		Polish          string `json:"polish"`
		MemeExplanation string `json:"memeExplanation"`
		MemeContext     string `json:"memeContext"`
		ImagePrompt     string `json:"imagePrompt"`
		Topic           string `json:"topic"`
		Difficulty      string `json:"difficulty"`
	}
	if err := json.Unmarshal([]byte(content), &args); err != nil {
		return nil, fmt.Errorf("failed to parse meme response: %w", err)
	}
	if args.MemeGermanText == "" || args.Polish == "" {
		return nil, fmt.Errorf("meme response missing required fields")
	}

	difficulty := Difficulty(args.Difficulty)
	if !difficulty.Valid() {
		difficulty = req.Difficulty
	}

	challenge := &Challenge{
		Polish:          args.Polish,
		Difficulty:      difficulty,
		Topic:           args.Topic,
		MemeTitle:       args.MemeTitle,
		MemeGermanText:  args.MemeGermanText,
		MemeExplanation: args.MemeExplanation,
		MemeContext:     args.MemeContext,
	}

	if args.ImagePrompt != "" {
		imageURL, err := cm.generateImage(ctx, fmt.Sprintf("A vibrant, modern internet meme style illustration of: %s. Clear, funny, high quality.", args.ImagePrompt))
		if err != nil {
			log.Printf("Meme image generation failed: %v", err)
		} else {
			challenge.ImageURL = imageURL
		}
	}

	if cm.logger != nil {
		cm.logger.LogChallenge(ModeMemes, challenge.Topic)
	}
	return challenge, nil
}

// generateImage produces an illustrative image and returns it as a data URL.
func (cm *ChallengeMaker) generateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := cm.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("no image data in response")
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

func (cm *ChallengeMaker) buildPrompt(req GenerationRequest) string {
	var sb strings.Builder

	switch req.Mode {
	case ModeWords:
		sb.WriteString(fmt.Sprintf("Generate one useful Polish vocabulary word for a learner of German at level %s.\n", req.Difficulty))
	case ModeCloze:
		tense := "any tense"
		if req.Tense.Valid() {
			tense = string(req.Tense)
		}
		sb.WriteString(fmt.Sprintf("Generate a German gap-fill sentence (verb conjugation) at level %s. Tense: %s.\n", req.Difficulty, tense))
		sb.WriteString("Replace the conjugated verb with ___ in clozeSentence and put the correct form in correctAnswer.\n")
	case ModeSpeech:
		sb.WriteString(fmt.Sprintf("Generate one interesting German sentence at level %s for the learner to read aloud, with its Polish translation.\n", req.Difficulty))
	case ModeContext:
		sb.WriteString(fmt.Sprintf("Generate exactly %d German example sentences using the word %q, at level %s.\n", ContextSentenceCount, req.TargetWord, req.Difficulty))
		sb.WriteString("Each sentence must contain the word and come with a Polish translation.\n")
	default:
		sb.WriteString(fmt.Sprintf("Generate one practical Polish sentence at level %s for translation into German.\n", req.Difficulty))
	}

	writeExclusions(&sb, req.Exclusions)
	sb.WriteString("\nUse the submit_challenge tool to return the exercise.")
	return sb.String()
}

// writeExclusions appends the mastered-items ban list to a prompt.
func writeExclusions(sb *strings.Builder, exclusions []string) {
	exclusions = truncateExclusions(exclusions)
	if len(exclusions) == 0 {
		return
	}
	sb.WriteString("\nDo NOT use any of these already mastered items: ")
	sb.WriteString(strings.Join(exclusions, ", "))
	sb.WriteString(".\n")
}

// challengeSchema returns the tool-parameter schema for the given mode.
func challengeSchema(mode Mode) map[string]interface{} {
	properties := map[string]interface{}{
		"polish": map[string]interface{}{
			"type":        "string",
			"description": "The Polish text of the exercise",
		},
		"topic": map[string]interface{}{
			"type":        "string",
			"description": "One-word topic of the exercise",
		},
		"difficulty": map[string]interface{}{
			"type": "string",
			"enum": []string{"A1", "A2", "B1", "B2", "C1"},
		},
	}
	required := []string{"polish", "difficulty"}

	switch mode {
	case ModeCloze:
		properties["clozeSentence"] = map[string]interface{}{
			"type":        "string",
			"description": "German sentence with the conjugated verb replaced by ___",
		}
		properties["correctAnswer"] = map[string]interface{}{
			"type":        "string",
			"description": "The correct verb form for the gap",
		}
		properties["tense"] = map[string]interface{}{
			"type": "string",
			"enum": []string{"Präsens", "Perfekt", "Präteritum", "Futur I"},
		}
		required = append(required, "clozeSentence", "correctAnswer", "tense")
	case ModeSpeech:
		properties["german"] = map[string]interface{}{
			"type":        "string",
			"description": "The German sentence to read aloud",
		}
		required = append(required, "german")
	case ModeContext:
		properties["sentences"] = map[string]interface{}{
			"type":        "array",
			"description": fmt.Sprintf("Exactly %d example sentence pairs", ContextSentenceCount),
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"german": map[string]interface{}{
						"type":        "string",
						"description": "German example sentence containing the target word",
					},
					"polish": map[string]interface{}{
						"type":        "string",
						"description": "Polish translation of the sentence",
					},
				},
				"required": []string{"german", "polish"},
			},
		}
		required = []string{"sentences"}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
