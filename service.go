package szprechal

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Service bundles the remote content components behind one constructor, the
// way the surrounding application consumes them: challenge generation,
// grading and speech synthesis over a shared API client.
type Service struct {
	maker   *ChallengeMaker
	grader  *Grader
	speaker *Speaker
}

// NewService creates a service talking to the OpenAI API.
func NewService(apiKey string) *Service {
	client := openai.NewClient(apiKey)
	return NewServiceWithClient(client)
}

// NewServiceWithClient creates a service around an existing client.
func NewServiceWithClient(client *openai.Client) *Service {
	return &Service{
		maker:   NewChallengeMakerWithClient(client),
		grader:  NewGraderWithClient(client),
		speaker: NewSpeakerWithClient(client),
	}
}

// SetLogger attaches a session logger to every component.
func (svc *Service) SetLogger(logger *SessionLogger) {
	svc.maker.SetLogger(logger)
	svc.grader.SetLogger(logger)
}

// GenerateChallenge implements ContentService.
func (svc *Service) GenerateChallenge(ctx context.Context, req GenerationRequest) (*Challenge, error) {
	return svc.maker.GenerateChallenge(ctx, req)
}

// GradeSubmission implements GradingService.
func (svc *Service) GradeSubmission(ctx context.Context, challenge *Challenge, answer string, difficulty Difficulty, mode Mode) (*Feedback, error) {
	return svc.grader.GradeSubmission(ctx, challenge, answer, difficulty, mode)
}

// GradeSpeech implements GradingService.
func (svc *Service) GradeSpeech(ctx context.Context, referenceText string, audio []byte) (*Feedback, error) {
	return svc.grader.GradeSpeech(ctx, referenceText, audio)
}

// Synthesize returns playable WAV audio for German text.
func (svc *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return svc.speaker.Synthesize(ctx, text)
}
