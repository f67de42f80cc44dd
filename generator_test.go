package szprechal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// newTestClient points an API client at a fake backend.
func newTestClient(t *testing.T, handler http.Handler) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(config)
}

// toolCallCompletion builds a chat-completion body whose only content is a
// forced tool call with the given arguments.
func toolCallCompletion(toolName, arguments string) string {
	body := map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role": "assistant",
					"tool_calls": []map[string]interface{}{
						{
							"id":   "call_1",
							"type": "function",
							"function": map[string]interface{}{
								"name":      toolName,
								"arguments": arguments,
							},
						},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestGenerateClozeChallenge(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, toolCallCompletion("submit_challenge",
			`{"polish":"On pobiegł do domu.","topic":"Aktivitäten","difficulty":"B1","clozeSentence":"Er ___ nach Hause gelaufen.","correctAnswer":"ist","tense":"Perfekt"}`))
	}))

	maker := NewChallengeMakerWithClient(client)
	challenge, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyB1,
		Mode:       ModeCloze,
		Tense:      TensePerfect,
	})
	if err != nil {
		t.Fatalf("GenerateChallenge failed: %v", err)
	}

	if challenge.ClozeSentence == "" {
		t.Error("expected non-empty cloze sentence")
	}
	if challenge.CorrectAnswer == "" {
		t.Error("expected non-empty correct answer")
	}
	if challenge.Tense != TensePerfect {
		t.Errorf("expected tense Perfekt, got %q", challenge.Tense)
	}
	if challenge.Difficulty != DifficultyB1 {
		t.Errorf("expected difficulty B1, got %s", challenge.Difficulty)
	}
}

func TestGenerateContextChallenge(t *testing.T) {
	sentences := make([]map[string]string, ContextSentenceCount)
	for i := range sentences {
		sentences[i] = map[string]string{
			"german": fmt.Sprintf("Ich laufe jeden Tag, Beispiel %d.", i+1),
			"polish": fmt.Sprintf("Biegam codziennie, przykład %d.", i+1),
		}
	}
	args, _ := json.Marshal(map[string]interface{}{"sentences": sentences})

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, toolCallCompletion("submit_challenge", string(args)))
	}))

	maker := NewChallengeMakerWithClient(client)
	challenge, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyB1,
		Mode:       ModeContext,
		TargetWord: "laufen",
	})
	if err != nil {
		t.Fatalf("GenerateChallenge failed: %v", err)
	}

	if challenge.TargetWord != "laufen" {
		t.Errorf("expected target word laufen, got %q", challenge.TargetWord)
	}
	if len(challenge.ContextSentences) != ContextSentenceCount {
		t.Fatalf("expected %d context sentences, got %d", ContextSentenceCount, len(challenge.ContextSentences))
	}
	for i, s := range challenge.ContextSentences {
		if s.German == "" || s.Polish == "" {
			t.Errorf("sentence %d has empty text: %+v", i, s)
		}
	}
}

func TestGenerateContextRequiresWord(t *testing.T) {
	maker := NewChallengeMakerWithClient(newTestClient(t, http.NotFoundHandler()))
	_, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyA1,
		Mode:       ModeContext,
	})
	if err == nil {
		t.Error("expected error for missing target word")
	}
}

func TestExclusionListTruncated(t *testing.T) {
	var prompt string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.Unmarshal(body, &req)
		prompt = req.Messages[len(req.Messages)-1].Content
		fmt.Fprint(w, toolCallCompletion("submit_challenge", `{"polish":"Pies","difficulty":"A1"}`))
	}))

	exclusions := make([]string, 150)
	for i := range exclusions {
		exclusions[i] = fmt.Sprintf("item%03d", i)
	}

	maker := NewChallengeMakerWithClient(client)
	_, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyA1,
		Mode:       ModeSentences,
		Exclusions: exclusions,
	})
	if err != nil {
		t.Fatalf("GenerateChallenge failed: %v", err)
	}

	// Only the most recent 100 entries may appear in the prompt.
	if strings.Contains(prompt, "item049") {
		t.Error("prompt contains an entry that should have been truncated")
	}
	if !strings.Contains(prompt, "item050") || !strings.Contains(prompt, "item149") {
		t.Error("prompt is missing entries from the most recent 100")
	}
}

func TestFallbackOnMalformedArguments(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, toolCallCompletion("submit_challenge", `this is not json`))
	}))

	maker := NewChallengeMakerWithClient(client)
	challenge, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyB2,
		Mode:       ModeSentences,
	})
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}

	if challenge.Polish != "Samochód" || challenge.Difficulty != DifficultyA1 || challenge.Topic != "Podstawy" {
		t.Errorf("expected fallback challenge, got %+v", challenge)
	}
}

func TestWordImageFailureNonFatal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			fmt.Fprint(w, toolCallCompletion("submit_challenge", `{"polish":"Pies","topic":"Zwierzęta","difficulty":"A1"}`))
		case "/v1/images/generations":
			http.Error(w, "image backend down", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))

	maker := NewChallengeMakerWithClient(client)
	challenge, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyA1,
		Mode:       ModeWords,
	})
	if err != nil {
		t.Fatalf("image failure must not propagate, got: %v", err)
	}

	if challenge.Polish != "Pies" {
		t.Errorf("expected polish field intact, got %q", challenge.Polish)
	}
	if !challenge.IsWord {
		t.Error("expected IsWord set for vocabulary challenge")
	}
	if challenge.ImageURL != "" {
		t.Errorf("expected no image URL, got %q", challenge.ImageURL)
	}
}

func TestWordImageAttached(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			fmt.Fprint(w, toolCallCompletion("submit_challenge", `{"polish":"Pies","difficulty":"A1"}`))
		case "/v1/images/generations":
			fmt.Fprint(w, `{"created":1,"data":[{"b64_json":"aW1n"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))

	maker := NewChallengeMakerWithClient(client)
	challenge, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyA1,
		Mode:       ModeWords,
	})
	if err != nil {
		t.Fatalf("GenerateChallenge failed: %v", err)
	}
	if challenge.ImageURL != "data:image/png;base64,aW1n" {
		t.Errorf("unexpected image URL: %q", challenge.ImageURL)
	}
}

func TestGenerateMeme(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			content := `{"memeTitle":"Verschlimmbessern","memeGermanText":"Ich wollte es verbessern...","polish":"Chciałem to poprawić...","memeExplanation":"Gra słów.","memeContext":"Klasyka niemieckiego internetu.","imagePrompt":"a broken chair","topic":"Humor","difficulty":"B1"}`
			body := map[string]interface{}{
				"id":     "chatcmpl-test",
				"object": "chat.completion",
				"choices": []map[string]interface{}{
					{
						"index": 0,
						"message": map[string]interface{}{
							"role":    "assistant",
							"content": content,
						},
						"finish_reason": "stop",
					},
				},
			}
			json.NewEncoder(w).Encode(body)
		case "/v1/images/generations":
			fmt.Fprint(w, `{"created":1,"data":[{"b64_json":"bWVtZQ=="}]}`)
		default:
			http.NotFound(w, r)
		}
	}))

	maker := NewChallengeMakerWithClient(client)
	challenge, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyB1,
		Mode:       ModeMemes,
	})
	if err != nil {
		t.Fatalf("GenerateChallenge failed: %v", err)
	}

	if challenge.MemeTitle == "" || challenge.MemeGermanText == "" || challenge.Polish == "" {
		t.Errorf("missing required meme fields: %+v", challenge)
	}
	if challenge.MemeExplanation == "" || challenge.MemeContext == "" {
		t.Errorf("missing meme explanation or context: %+v", challenge)
	}
	if challenge.ImageURL == "" {
		t.Error("expected meme image attached")
	}
}

func TestGenerateMemeMalformedPropagates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": "not json at all",
					},
					"finish_reason": "stop",
				},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))

	maker := NewChallengeMakerWithClient(client)
	_, err := maker.GenerateChallenge(context.Background(), GenerationRequest{
		Difficulty: DifficultyB1,
		Mode:       ModeMemes,
	})
	if err == nil {
		t.Error("expected error for malformed meme response")
	}
}

func TestInvalidRequestRejected(t *testing.T) {
	maker := NewChallengeMakerWithClient(newTestClient(t, http.NotFoundHandler()))

	if _, err := maker.GenerateChallenge(context.Background(), GenerationRequest{Difficulty: "Z9", Mode: ModeSentences}); err == nil {
		t.Error("expected error for invalid difficulty")
	}
	if _, err := maker.GenerateChallenge(context.Background(), GenerationRequest{Difficulty: DifficultyA1, Mode: "DANCING"}); err == nil {
		t.Error("expected error for invalid mode")
	}
}
