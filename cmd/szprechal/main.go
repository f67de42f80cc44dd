package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"szprechal"

	"github.com/joho/godotenv"
)

func main() {
	var (
		mode      = flag.String("mode", "SENTENCES", "Exercise mode (SENTENCES, WORDS, CLOZE, SPEECH, MEMES, CONTEXT)")
		level     = flag.String("level", "", "Difficulty level (A1-C1, default: persisted level)")
		tense     = flag.String("tense", "Präsens", "Cloze tense (Präsens, Perfekt, Präteritum, Futur I)")
		word      = flag.String("word", "", "Target word for CONTEXT mode")
		audioFile = flag.String("audio", "", "Recorded clip file for SPEECH mode grading")
		dbPath    = flag.String("db", "./szprechal.db", "SQLite database path")
		apiKey    = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		verbose   = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()
	godotenv.Load()

	szprechal.SetVerbose(*verbose)

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	store, err := szprechal.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	svc := szprechal.NewService(*apiKey)
	sess := szprechal.NewSession(svc, svc, store)

	ctx := context.Background()

	if *level != "" {
		if err := sess.SetDifficulty(ctx, szprechal.Difficulty(*level)); err != nil {
			log.Fatalf("Invalid level: %v", err)
		}
	}
	if err := sess.SetTense(ctx, szprechal.Tense(*tense)); err != nil {
		log.Fatalf("Invalid tense: %v", err)
	}
	if err := sess.SetMode(ctx, szprechal.Mode(*mode)); err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		view := sess.Snapshot()

		if view.State == szprechal.StateAwaitingWord {
			target := *word
			if target == "" {
				fmt.Print("\nGerman word to explore: ")
				target, _ = reader.ReadString('\n')
			}
			if err := sess.SubmitWord(ctx, strings.TrimSpace(target)); err != nil {
				log.Fatalf("Word rejected: %v", err)
			}
			*word = ""
			view = sess.Snapshot()
		}

		if view.Challenge == nil {
			fmt.Println("\nNo challenge available, try again.")
			sess.Next(ctx)
			if sess.Snapshot().Challenge == nil {
				os.Exit(1)
			}
			continue
		}

		playRound(ctx, sess, reader, *audioFile)

		stats := sess.Stats()
		fmt.Printf("\nPoints: %d  Completed: %d  Streak: %d  Level: %s\n",
			stats.Points, stats.SentencesCompleted, stats.Streak, stats.Level)

		fmt.Print("\nNext challenge? [Y/n] ")
		answer, _ := reader.ReadString('\n')
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "n") {
			return
		}
		if sess.Snapshot().Mode == szprechal.ModeContext {
			sess.ClearWord()
			continue
		}
		sess.Next(ctx)
	}
}

func playRound(ctx context.Context, sess *szprechal.Session, reader *bufio.Reader, audioFile string) {
	view := sess.Snapshot()
	ch := view.Challenge

	switch view.Mode {
	case szprechal.ModeContext:
		fmt.Printf("\n=== %q in context ===\n", ch.TargetWord)
		for i, s := range ch.ContextSentences {
			fmt.Printf("%2d. %s\n    %s\n", i+1, s.German, s.Polish)
		}
		return

	case szprechal.ModeMemes:
		fmt.Printf("\n=== %s ===\n", ch.MemeTitle)
		fmt.Printf("DE: %s\n", ch.MemeGermanText)
		fmt.Printf("PL: %s\n", ch.Polish)
		fmt.Printf("\nWhy it's funny: %s\n", ch.MemeExplanation)
		fmt.Printf("Background: %s\n", ch.MemeContext)
		return

	case szprechal.ModeSpeech:
		fmt.Printf("\nRead aloud: %s\n", ch.German)
		if audioFile == "" {
			fmt.Println("No -audio clip given, skipping grading.")
			return
		}
		if err := sess.StartRecording(); err != nil {
			log.Printf("Recording rejected: %v", err)
			return
		}

		recorder := szprechal.NewRecorder(newFileAudioSource(audioFile))
		recorder.OnTick(func(seconds int) {
			sess.TickRecording(seconds)
			fmt.Printf("Recording... %ds\n", seconds)
		})

		clip, err := recorder.Record(ctx)
		if err != nil {
			log.Printf("Capture failed: %v", err)
			return
		}
		if err := sess.FinishRecording(ctx, clip); err != nil {
			log.Printf("Grading rejected: %v", err)
			return
		}

	case szprechal.ModeCloze:
		fmt.Printf("\n[%s] %s\n", ch.Tense, ch.ClozeSentence)
		submitText(ctx, sess, reader, "Verb form: ")

	default:
		fmt.Printf("\nTranslate into German: %s\n", ch.Polish)
		if ch.IsWord && ch.ImageURL != "" {
			fmt.Println("(illustration available)")
		}
		submitText(ctx, sess, reader, "Your answer: ")
	}

	printFeedback(sess.Snapshot().Feedback)
}

func submitText(ctx context.Context, sess *szprechal.Session, reader *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	answer, _ := reader.ReadString('\n')
	if err := sess.SubmitAnswer(ctx, strings.TrimSpace(answer)); err != nil {
		log.Printf("Submission rejected: %v", err)
	}
}

func printFeedback(fb *szprechal.Feedback) {
	if fb == nil {
		fmt.Println("No feedback received.")
		return
	}

	if fb.IsCorrect {
		fmt.Printf("\n✓ Correct! (%d/100)\n", fb.Score)
	} else {
		fmt.Printf("\n✗ Not quite. (%d/100)\n", fb.Score)
	}
	fmt.Printf("Correct version: %s\n", fb.CorrectVersion)
	fmt.Printf("%s\n", fb.Explanation)
	for _, c := range fb.Corrections {
		fmt.Printf(" - %s\n", c)
	}
	for _, alt := range fb.AlternativeVersions {
		fmt.Printf(" alt: %s\n", alt)
	}
}
