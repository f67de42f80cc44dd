package main

import (
	"context"
	"log"
	"sync"

	"szprechal"

	openai "github.com/sashabaranov/go-openai"
)

// sessionRegistry maps browser session ids to server-side learning sessions.
// Sessions share one API client but each gets its own service wrapper and
// model-traffic log.
type sessionRegistry struct {
	mu       sync.RWMutex
	client   *openai.Client
	store    *szprechal.Store
	sessions map[string]*szprechal.Session
}

func newSessionRegistry(apiKey string, store *szprechal.Store) *sessionRegistry {
	return &sessionRegistry{
		client:   openai.NewClient(apiKey),
		store:    store,
		sessions: make(map[string]*szprechal.Session),
	}
}

// Get returns the session for the given id, creating and starting it on
// first sight.
func (sr *sessionRegistry) Get(id string) *szprechal.Session {
	sr.mu.RLock()
	sess, ok := sr.sessions[id]
	sr.mu.RUnlock()
	if ok {
		return sess
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sess, ok := sr.sessions[id]; ok {
		return sess
	}

	svc := szprechal.NewServiceWithClient(sr.client)
	sess = szprechal.NewSession(svc, svc, sr.store)
	if logger, err := szprechal.NewSessionLogger(id); err != nil {
		log.Printf("Failed to create session logger for %s: %v", id, err)
	} else {
		svc.SetLogger(logger)
		sess.SetLogger(logger)
	}
	sr.sessions[id] = sess

	// Initial mount fetches the first challenge. Requests are never
	// cancelled by navigation, so they run on the background context.
	go sess.Start(context.Background())
	return sess
}

// Service returns a plain service wrapper for calls that are not bound to a
// session, like speech synthesis.
func (sr *sessionRegistry) Service() *szprechal.Service {
	return szprechal.NewServiceWithClient(sr.client)
}
