package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"szprechal"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const cookieName = "szprechal-session"

// Server glues HTTP requests to per-browser learning sessions.
type Server struct {
	registry    *sessionRegistry
	store       *szprechal.Store
	cookieStore *sessions.CookieStore
}

// session resolves the learning session for this browser, minting a new
// session id cookie when none exists.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *szprechal.Session {
	cookie, _ := s.cookieStore.Get(r, cookieName)
	id, ok := cookie.Values["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		cookie.Values["id"] = id
		if err := cookie.Save(r, w); err != nil {
			log.Printf("Session cookie save error: %v", err)
		}
	}
	return s.registry.Get(id)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) snapshot(w http.ResponseWriter, sess *szprechal.Session) {
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.snapshot(w, s.session(w, r))
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode szprechal.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	if err := sess.SetMode(context.Background(), body.Mode); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level szprechal.Difficulty `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	if err := sess.SetDifficulty(context.Background(), body.Level); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleTense(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tense szprechal.Tense `json:"tense"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	if err := sess.SetTense(context.Background(), body.Tense); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Next(context.Background())
	s.snapshot(w, sess)
}

func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	if err := sess.SubmitWord(context.Background(), body.Word); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleClearWord(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.ClearWord()
	s.snapshot(w, sess)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	if err := sess.SubmitAnswer(context.Background(), body.Answer); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.StartRecording(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AudioBase64 string `json:"audio_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	clip, err := szprechal.DecodeClip(body.AudioBase64)
	if err != nil {
		http.Error(w, "Invalid audio payload", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	if err := sess.FinishRecording(context.Background(), clip); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.snapshot(w, sess)
}

func (s *Server) handleMastered(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode szprechal.Mode `json:"mode"`
		Item string         `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !body.Mode.Valid() {
		http.Error(w, "Invalid mode", http.StatusBadRequest)
		return
	}

	if err := s.store.RecordMastered(body.Mode, body.Item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	audio, err := s.registry.Service().Synthesize(r.Context(), body.Text)
	if err != nil {
		log.Printf("Speech synthesis failed: %v", err)
		http.Error(w, "Speech synthesis failed", http.StatusBadGateway)
		return
	}
	if len(audio) == 0 {
		// Missing audio payload is a silent no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Write(audio)
}
