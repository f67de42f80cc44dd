package main

import (
	"log"
	"net/http"

	"szprechal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments use plain env vars.
	godotenv.Load()

	cfg, err := szprechal.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	szprechal.SetVerbose(cfg.Verbose)

	store, err := szprechal.OpenStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	server := &Server{
		registry:    newSessionRegistry(cfg.APIKey, store),
		store:       store,
		cookieStore: sessions.NewCookieStore([]byte(cfg.SessionSecret)),
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", server.handleState)
		r.Post("/mode", server.handleMode)
		r.Post("/difficulty", server.handleDifficulty)
		r.Post("/tense", server.handleTense)
		r.Post("/next", server.handleNext)
		r.Post("/word", server.handleWord)
		r.Post("/word/clear", server.handleClearWord)
		r.Post("/answer", server.handleAnswer)
		r.Post("/recording/start", server.handleRecordingStart)
		r.Post("/recording", server.handleRecording)
		r.Post("/mastered", server.handleMastered)
		r.Post("/speak", server.handleSpeak)
	})

	log.Printf("Starting server on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}
