package szprechal

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestGradeCorrectTranslation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, toolCallCompletion("submit_feedback",
			`{"isCorrect":true,"score":95,"corrections":[],"explanation":"Idealne tłumaczenie.","correctVersion":"Der Hund läuft.","alternativeVersions":["Der Hund rennt."]}`))
	}))

	grader := NewGraderWithClient(client)
	challenge := &Challenge{Polish: "Pies biegnie.", Difficulty: DifficultyA1}

	feedback, err := grader.GradeSubmission(context.Background(), challenge, "Der Hund läuft.", DifficultyA1, ModeSentences)
	if err != nil {
		t.Fatalf("GradeSubmission failed: %v", err)
	}

	if !feedback.IsCorrect {
		t.Error("expected IsCorrect true")
	}
	if feedback.Score != 95 {
		t.Errorf("expected score 95, got %d", feedback.Score)
	}
	if feedback.CorrectVersion != "Der Hund läuft." {
		t.Errorf("unexpected correct version: %q", feedback.CorrectVersion)
	}
	if len(feedback.AlternativeVersions) != 1 {
		t.Errorf("expected one alternative, got %v", feedback.AlternativeVersions)
	}
}

func TestGradeMalformedResponsePropagates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, toolCallCompletion("submit_feedback", `broken`))
	}))

	grader := NewGraderWithClient(client)
	challenge := &Challenge{Polish: "Pies biegnie.", Difficulty: DifficultyA1}

	if _, err := grader.GradeSubmission(context.Background(), challenge, "Der Hund läuft.", DifficultyA1, ModeSentences); err == nil {
		t.Error("expected grading parse failure to propagate")
	}
}

func TestGradeRejectsEmptyInput(t *testing.T) {
	grader := NewGraderWithClient(newTestClient(t, http.NotFoundHandler()))

	if _, err := grader.GradeSubmission(context.Background(), nil, "x", DifficultyA1, ModeSentences); err == nil {
		t.Error("expected error for nil challenge")
	}
	if _, err := grader.GradeSubmission(context.Background(), &Challenge{Polish: "Pies"}, "  ", DifficultyA1, ModeSentences); err == nil {
		t.Error("expected error for empty answer")
	}
}

func TestGradeSpeechCorrectionsNeverEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/audio/transcriptions":
			fmt.Fprint(w, `{"text":"Der Hund läuft."}`)
		case "/v1/chat/completions":
			fmt.Fprint(w, toolCallCompletion("submit_feedback",
				`{"isCorrect":true,"score":90,"corrections":[],"explanation":"Bardzo dobra wymowa.","correctVersion":"Der Hund läuft."}`))
		default:
			http.NotFound(w, r)
		}
	}))

	grader := NewGraderWithClient(client)
	feedback, err := grader.GradeSpeech(context.Background(), "Der Hund läuft.", []byte("fake-webm-audio"))
	if err != nil {
		t.Fatalf("GradeSpeech failed: %v", err)
	}

	if len(feedback.Corrections) == 0 {
		t.Error("speech feedback must carry at least one correction")
	}
	if feedback.Score != 90 {
		t.Errorf("expected score 90, got %d", feedback.Score)
	}
}

func TestGradeSpeechRejectsEmptyClip(t *testing.T) {
	grader := NewGraderWithClient(newTestClient(t, http.NotFoundHandler()))
	if _, err := grader.GradeSpeech(context.Background(), "Der Hund läuft.", nil); err == nil {
		t.Error("expected error for empty recording")
	}
}
