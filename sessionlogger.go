package szprechal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionLogger records every model interaction for one learning session.
type SessionLogger struct {
	file      *os.File
	mu        sync.Mutex
	sessionID string
}

// NewSessionLogger creates a logger writing to log/<sessionID>.log.
func NewSessionLogger(sessionID string) (*SessionLogger, error) {
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s.log", sessionID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &SessionLogger{
		file:      file,
		sessionID: sessionID,
	}

	logger.Logf("=== Learning Session Log ===\n")
	logger.Logf("Session ID: %s\n", sessionID)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (sl *SessionLogger) Logf(format string, args ...interface{}) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(sl.file, "[%s] %s", timestamp, message)
	sl.file.Sync()
}

// LogRequest logs an outgoing model request.
func (sl *SessionLogger) LogRequest(component, prompt string) {
	sl.Logf("=== MODEL REQUEST (%s) ===\n", component)
	sl.Logf("Prompt:\n%s\n", prompt)
	sl.Logf("=====================\n\n")
}

// LogResponse logs a model response.
func (sl *SessionLogger) LogResponse(component, response string) {
	sl.Logf("=== MODEL RESPONSE (%s) ===\n", component)
	sl.Logf("Response:\n%s\n", response)
	sl.Logf("======================\n\n")
}

// LogChallenge logs the outcome of a generation call.
func (sl *SessionLogger) LogChallenge(mode Mode, topic string) {
	sl.Logf("Challenge generated: mode=%s topic=%q\n", mode, topic)
}

// LogVerdict logs the outcome of a grading call.
func (sl *SessionLogger) LogVerdict(mode Mode, correct bool, score int) {
	sl.Logf("Submission graded: mode=%s correct=%v score=%d\n", mode, correct, score)
}

// Close closes the log file
func (sl *SessionLogger) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.file != nil {
		fmt.Fprintf(sl.file, "[%s] === Session Closed ===\n", time.Now().Format("15:04:05.000"))
		return sl.file.Close()
	}
	return nil
}
