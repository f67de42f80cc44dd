package szprechal

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// SessionState is the controller state of one learning session.
type SessionState string

const (
	// StateIdle means no challenge is displayed and no request is running.
	StateIdle SessionState = "idle"
	// StateAwaitingWord is the context-mode start state before a word is given.
	StateAwaitingWord SessionState = "awaiting_word"
	// StateLoading means a content-generation request is in flight.
	StateLoading SessionState = "loading"
	// StateReady means a challenge is displayed and accepting a submission.
	StateReady SessionState = "ready"
	// StateRecording is the press-and-hold speech capture sub-state.
	StateRecording SessionState = "recording"
	// StateSubmitting means a grading request is in flight.
	StateSubmitting SessionState = "submitting"
	// StateReviewed means feedback is displayed; submission controls are locked.
	StateReviewed SessionState = "reviewed"
)

// ContentService generates challenges.
type ContentService interface {
	GenerateChallenge(ctx context.Context, req GenerationRequest) (*Challenge, error)
}

// GradingService grades submissions.
type GradingService interface {
	GradeSubmission(ctx context.Context, challenge *Challenge, answer string, difficulty Difficulty, mode Mode) (*Feedback, error)
	GradeSpeech(ctx context.Context, referenceText string, audio []byte) (*Feedback, error)
}

// ProgressStore persists stats and serves mastered-item exclusion lists.
type ProgressStore interface {
	LoadStats() (UserStats, error)
	SaveStats(stats UserStats) error
	MasteredItems(mode Mode) ([]string, error)
}

// Session is the challenge-lifecycle state machine for one learner. All
// mutations go through its methods; remote calls run outside the lock and
// their results are applied only if their generation token is still current,
// so a stale response can never clobber a newer challenge.
type Session struct {
	mu        sync.Mutex
	generator ContentService
	grader    GradingService
	store     ProgressStore
	logger    *SessionLogger

	state      SessionState
	mode       Mode
	tense      Tense
	stats      UserStats
	challenge  *Challenge
	feedback   *Feedback
	answer     string
	targetWord string
	recordSecs int

	gen uint64 // generation token, guards against stale responses
}

// SessionView is an immutable snapshot of session state for rendering.
type SessionView struct {
	State      SessionState `json:"state"`
	Mode       Mode         `json:"mode"`
	Tense      Tense        `json:"tense"`
	Stats      UserStats    `json:"stats"`
	Challenge  *Challenge   `json:"challenge,omitempty"`
	Feedback   *Feedback    `json:"feedback,omitempty"`
	TargetWord string       `json:"target_word,omitempty"`
	RecordSecs int          `json:"record_seconds,omitempty"`
	CanSubmit  bool         `json:"can_submit"`
}

// NewSession creates a session in SENTENCES mode with persisted stats loaded.
func NewSession(generator ContentService, grader GradingService, store ProgressStore) *Session {
	stats, err := store.LoadStats()
	if err != nil {
		log.Printf("Failed to load stats, starting fresh: %v", err)
		stats = DefaultStats()
	}
	return &Session{
		generator: generator,
		grader:    grader,
		store:     store,
		state:     StateIdle,
		mode:      ModeSentences,
		tense:     TensePresent,
		stats:     stats,
	}
}

// SetLogger attaches a session logger.
func (s *Session) SetLogger(logger *SessionLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Snapshot returns the current view state.
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		State:      s.state,
		Mode:       s.mode,
		Tense:      s.tense,
		Stats:      s.stats,
		Challenge:  s.challenge,
		Feedback:   s.feedback,
		TargetWord: s.targetWord,
		RecordSecs: s.recordSecs,
		CanSubmit:  s.state == StateReady && s.feedback == nil,
	}
}

// Start issues the initial challenge request.
func (s *Session) Start(ctx context.Context) {
	s.load(ctx)
}

// SetMode switches the exercise family. Every mode change discards the
// current challenge; context mode waits for a word instead of fetching.
func (s *Session) SetMode(ctx context.Context, mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode: %q", mode)
	}

	s.mu.Lock()
	s.mode = mode
	s.targetWord = ""
	if mode == ModeContext {
		s.gen++ // supersede any in-flight request
		s.challenge = nil
		s.feedback = nil
		s.answer = ""
		s.state = StateAwaitingWord
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.load(ctx)
	return nil
}

// SetDifficulty changes the level and reloads. In context mode the active
// word, if any, is preserved; without one the session keeps waiting for input.
func (s *Session) SetDifficulty(ctx context.Context, level Difficulty) error {
	if !level.Valid() {
		return fmt.Errorf("invalid difficulty: %q", level)
	}

	s.mu.Lock()
	s.stats.Level = level
	if err := s.store.SaveStats(s.stats); err != nil {
		log.Printf("Failed to persist stats: %v", err)
	}
	contextIdle := s.mode == ModeContext && s.targetWord == ""
	s.mu.Unlock()

	if contextIdle {
		return nil
	}
	s.load(ctx)
	return nil
}

// SetTense changes the cloze tense. Only cloze mode reloads.
func (s *Session) SetTense(ctx context.Context, tense Tense) error {
	if !tense.Valid() {
		return fmt.Errorf("invalid tense: %q", tense)
	}

	s.mu.Lock()
	s.tense = tense
	reload := s.mode == ModeCloze
	s.mu.Unlock()

	if reload {
		s.load(ctx)
	}
	return nil
}

// Next discards the current challenge and requests a fresh one.
func (s *Session) Next(ctx context.Context) {
	s.load(ctx)
}

// SubmitWord supplies the context-mode target word and fetches its examples.
func (s *Session) SubmitWord(ctx context.Context, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return fmt.Errorf("word must not be empty")
	}

	s.mu.Lock()
	if s.mode != ModeContext {
		s.mu.Unlock()
		return fmt.Errorf("word input is only valid in context mode")
	}
	s.targetWord = word
	s.mu.Unlock()

	s.load(ctx)
	return nil
}

// ClearWord leaves the context result view without issuing a request.
func (s *Session) ClearWord() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeContext {
		return
	}
	s.gen++
	s.challenge = nil
	s.feedback = nil
	s.answer = ""
	s.targetWord = ""
	s.state = StateAwaitingWord
}

// load runs one content-generation request. It clears prior feedback and the
// answer buffer up front, and applies the response only if no newer request
// has been issued meanwhile.
func (s *Session) load(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	token := s.gen
	s.state = StateLoading
	s.challenge = nil
	s.feedback = nil
	s.answer = ""
	s.recordSecs = 0

	req := GenerationRequest{
		Difficulty: s.stats.Level,
		Mode:       s.mode,
	}
	if s.mode == ModeCloze {
		req.Tense = s.tense
	}
	if s.mode == ModeContext {
		req.TargetWord = s.targetWord
	}
	s.mu.Unlock()

	exclusions, err := s.store.MasteredItems(req.Mode)
	if err != nil {
		log.Printf("Failed to load mastered items: %v", err)
	}
	req.Exclusions = exclusions

	challenge, err := s.generator.GenerateChallenge(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		VerboseLog("Discarding stale challenge response (token %d, current %d)", token, s.gen)
		return
	}
	if err != nil {
		// No retry and no error surface; the learner re-triggers manually.
		log.Printf("Challenge generation failed: %v", err)
		s.state = StateIdle
		return
	}
	s.challenge = challenge
	s.state = StateReady
}

// SubmitAnswer grades a written answer. A challenge accepts at most one
// submission: once feedback is set, further submissions are rejected until
// the next challenge request begins.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("answer must not be empty")
	}

	s.mu.Lock()
	if s.state != StateReady || s.feedback != nil {
		s.mu.Unlock()
		return fmt.Errorf("no submission accepted in state %s", s.state)
	}
	s.answer = answer
	s.state = StateSubmitting
	token := s.gen
	challenge := s.challenge
	difficulty := s.stats.Level
	mode := s.mode
	s.mu.Unlock()

	feedback, err := s.grader.GradeSubmission(ctx, challenge, answer, difficulty, mode)
	s.applyVerdict(token, feedback, err)
	return nil
}

// StartRecording enters the press-and-hold capture sub-state.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeSpeech {
		return fmt.Errorf("recording is only valid in speech mode")
	}
	if s.state != StateReady || s.feedback != nil {
		return fmt.Errorf("no recording accepted in state %s", s.state)
	}
	s.state = StateRecording
	s.recordSecs = 0
	return nil
}

// TickRecording advances the elapsed-time counter while recording.
func (s *Session) TickRecording(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecording {
		s.recordSecs = seconds
	}
}

// FinishRecording hands the captured clip to speech grading. An empty clip
// aborts back to the ready state.
func (s *Session) FinishRecording(ctx context.Context, audio []byte) error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return fmt.Errorf("not recording")
	}
	if len(audio) == 0 {
		s.state = StateReady
		s.mu.Unlock()
		return fmt.Errorf("empty recording")
	}
	s.state = StateSubmitting
	token := s.gen
	reference := ""
	if s.challenge != nil {
		reference = s.challenge.German
	}
	s.mu.Unlock()

	feedback, err := s.grader.GradeSpeech(ctx, reference, audio)
	s.applyVerdict(token, feedback, err)
	return nil
}

// applyVerdict merges a grading result. On failure the busy state ends with
// no feedback, so the learner can resubmit; on success the challenge is
// reviewed and progress accounting runs.
func (s *Session) applyVerdict(token uint64, feedback *Feedback, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		VerboseLog("Discarding stale grading response (token %d, current %d)", token, s.gen)
		return
	}
	if err != nil {
		log.Printf("Grading failed: %v", err)
		s.state = StateReady
		return
	}

	s.feedback = feedback
	s.state = StateReviewed

	if feedback.IsCorrect || feedback.Score >= PassScore {
		s.stats.Points += PointsPerWin
		s.stats.Streak++
		s.stats.SentencesCompleted++
		if err := s.store.SaveStats(s.stats); err != nil {
			log.Printf("Failed to persist stats: %v", err)
		}
		if s.logger != nil {
			s.logger.Logf("Reward applied: points=%d streak=%d completed=%d\n",
				s.stats.Points, s.stats.Streak, s.stats.SentencesCompleted)
		}
	}
	// Whether the streak should reset on a failed submission is deliberately
	// left alone: no decrement path exists.
}

// Stats returns the current progress record.
func (s *Session) Stats() UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
