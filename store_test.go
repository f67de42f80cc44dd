package szprechal

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadStatsDefault(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if stats.Points != 0 || stats.SentencesCompleted != 0 || stats.Streak != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
	if stats.Level != DifficultyA1 {
		t.Errorf("expected default level A1, got %s", stats.Level)
	}
}

func TestStatsRoundTrip(t *testing.T) {
	store := openTestStore(t)

	written := UserStats{Points: 35, SentencesCompleted: 7, Streak: 3, Level: DifficultyB1}
	if err := store.SaveStats(written); err != nil {
		t.Fatalf("SaveStats failed: %v", err)
	}

	read, err := store.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if read != written {
		t.Errorf("round trip mismatch: wrote %+v, read %+v", written, read)
	}
}

func TestSaveStatsLastWriteWins(t *testing.T) {
	store := openTestStore(t)

	first := UserStats{Points: 5, Level: DifficultyA1}
	second := UserStats{Points: 10, SentencesCompleted: 2, Streak: 2, Level: DifficultyA2}
	if err := store.SaveStats(first); err != nil {
		t.Fatalf("SaveStats failed: %v", err)
	}
	if err := store.SaveStats(second); err != nil {
		t.Fatalf("SaveStats failed: %v", err)
	}

	read, err := store.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if read != second {
		t.Errorf("expected last write %+v, got %+v", second, read)
	}
}

func TestRecordMastered(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordMastered(ModeWords, "Hund"); err != nil {
		t.Fatalf("RecordMastered failed: %v", err)
	}
	if err := store.RecordMastered(ModeWords, "Katze"); err != nil {
		t.Fatalf("RecordMastered failed: %v", err)
	}

	items, err := store.MasteredItems(ModeWords)
	if err != nil {
		t.Fatalf("MasteredItems failed: %v", err)
	}
	if len(items) != 2 || items[0] != "Hund" || items[1] != "Katze" {
		t.Errorf("expected ordered [Hund Katze], got %v", items)
	}
}

func TestMasteredListsPerMode(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordMastered(ModeWords, "Hund"); err != nil {
		t.Fatalf("RecordMastered failed: %v", err)
	}
	if err := store.RecordMastered(ModeCloze, "laufen"); err != nil {
		t.Fatalf("RecordMastered failed: %v", err)
	}

	for _, mode := range Modes {
		items, err := store.MasteredItems(mode)
		if err != nil {
			t.Fatalf("MasteredItems(%s) failed: %v", mode, err)
		}
		switch mode {
		case ModeWords:
			if len(items) != 1 || items[0] != "Hund" {
				t.Errorf("WORDS list wrong: %v", items)
			}
		case ModeCloze:
			if len(items) != 1 || items[0] != "laufen" {
				t.Errorf("CLOZE list wrong: %v", items)
			}
		default:
			if len(items) != 0 {
				t.Errorf("%s list should be empty, got %v", mode, items)
			}
		}
	}
}

func TestRecordMasteredRejectsEmpty(t *testing.T) {
	store := openTestStore(t)
	if err := store.RecordMastered(ModeWords, ""); err == nil {
		t.Error("expected error for empty item")
	}
}
