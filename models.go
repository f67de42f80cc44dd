package szprechal

// Difficulty is a CEFR proficiency level.
type Difficulty string

const (
	DifficultyA1 Difficulty = "A1"
	DifficultyA2 Difficulty = "A2"
	DifficultyB1 Difficulty = "B1"
	DifficultyB2 Difficulty = "B2"
	DifficultyC1 Difficulty = "C1"
)

// Difficulties lists all levels in ascending order.
var Difficulties = []Difficulty{DifficultyA1, DifficultyA2, DifficultyB1, DifficultyB2, DifficultyC1}

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// Mode selects which exercise family is active.
type Mode string

const (
	ModeSentences Mode = "SENTENCES"
	ModeWords     Mode = "WORDS"
	ModeCloze     Mode = "CLOZE"
	ModeSpeech    Mode = "SPEECH"
	ModeMemes     Mode = "MEMES"
	ModeContext   Mode = "CONTEXT"
)

// Modes lists all exercise families.
var Modes = []Mode{ModeSentences, ModeWords, ModeCloze, ModeSpeech, ModeMemes, ModeContext}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, v := range Modes {
		if m == v {
			return true
		}
	}
	return false
}

// Tense is a German grammatical tense for cloze exercises.
type Tense string

const (
	TensePresent Tense = "Präsens"
	TensePerfect Tense = "Perfekt"
	TensePast    Tense = "Präteritum"
	TenseFuture  Tense = "Futur I"
)

// Tenses lists all supported tenses.
var Tenses = []Tense{TensePresent, TensePerfect, TensePast, TenseFuture}

// Valid reports whether t is a known tense.
func (t Tense) Valid() bool {
	for _, v := range Tenses {
		if t == v {
			return true
		}
	}
	return false
}

// ContextSentence is one German example sentence paired with its Polish translation.
type ContextSentence struct {
	German string `json:"german"`
	Polish string `json:"polish"`
}

// Challenge is the unit of practice content. Only the fields relevant to the
// mode it was generated for are populated; everything else stays empty.
type Challenge struct {
	Polish     string     `json:"polish"`
	German     string     `json:"german,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	Topic      string     `json:"topic,omitempty"`
	IsWord     bool       `json:"is_word,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`

	// Cloze mode
	ClozeSentence string `json:"cloze_sentence,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Tense         Tense  `json:"tense,omitempty"`

	// Meme mode
	MemeTitle       string `json:"meme_title,omitempty"`
	MemeGermanText  string `json:"meme_german_text,omitempty"`
	MemeExplanation string `json:"meme_explanation,omitempty"`
	MemeContext     string `json:"meme_context,omitempty"`

	// Context mode
	TargetWord       string            `json:"target_word,omitempty"`
	ContextSentences []ContextSentence `json:"context_sentences,omitempty"`
}

// Feedback is the verdict on one graded submission.
type Feedback struct {
	IsCorrect           bool     `json:"is_correct"`
	Score               int      `json:"score"`
	Corrections         []string `json:"corrections"`
	Explanation         string   `json:"explanation"`
	CorrectVersion      string   `json:"correct_version"`
	AlternativeVersions []string `json:"alternative_versions,omitempty"`
}

// UserStats is the durable progress record.
type UserStats struct {
	Points             int        `json:"points"`
	SentencesCompleted int        `json:"sentences_completed"`
	Streak             int        `json:"streak"`
	Level              Difficulty `json:"level"`
}

// DefaultStats is the record used when nothing has been persisted yet.
func DefaultStats() UserStats {
	return UserStats{Level: DifficultyA1}
}

// GenerationRequest describes one content-generation call.
type GenerationRequest struct {
	Difficulty Difficulty `json:"difficulty"`
	Mode       Mode       `json:"mode"`
	Tense      Tense      `json:"tense,omitempty"`
	TargetWord string     `json:"target_word,omitempty"`
	Exclusions []string   `json:"exclusions,omitempty"`
}

const (
	// ExclusionLimit bounds how many mastered items are sent with a
	// generation request.
	ExclusionLimit = 100

	// PassScore is the minimum grading score that still counts as a win.
	PassScore = 80

	// PointsPerWin is the fixed reward for a passed submission.
	PointsPerWin = 5

	// ContextSentenceCount is the batch size for context-mode examples.
	ContextSentenceCount = 20
)
