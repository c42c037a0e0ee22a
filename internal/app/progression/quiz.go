package progression

import (
	"fmt"

	"github.com/citadel-app/citadel/internal/domain"
)

// Random is the randomness the engine consumes. *math/rand.Rand satisfies it;
// tests inject a scripted source.
type Random interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// QuestionKind is the type of a generated quiz question.
type QuestionKind string

const (
	QuestionSpecies QuestionKind = "species"
	QuestionOrigin  QuestionKind = "origin"
	QuestionImage   QuestionKind = "image"
)

var questionCycle = []QuestionKind{QuestionSpecies, QuestionOrigin, QuestionImage}

// maxDistractors is the number of wrong options offered per question.
const maxDistractors = 3

// Question is one multiple-choice quiz question.
type Question struct {
	Kind          QuestionKind `json:"kind"`
	CharacterID   int          `json:"characterId"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correctAnswer"`
	Image         string       `json:"image,omitempty"`
}

// GenerateQuiz picks n distinct characters from roster and builds one question
// per character, cycling species, origin and image questions.
func GenerateQuiz(roster []domain.Character, n int, rng Random) ([]Question, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d questions", domain.ErrInvalidQuizResult, n)
	}
	if len(roster) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrNotEnoughRoster, len(roster), n)
	}

	picked := make([]domain.Character, len(roster))
	copy(picked, roster)
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:n]

	questions := make([]Question, 0, n)
	for i, c := range picked {
		kind := questionCycle[i%len(questionCycle)]
		questions = append(questions, buildQuestion(kind, c, roster, rng))
	}
	return questions, nil
}

func buildQuestion(kind QuestionKind, c domain.Character, roster []domain.Character, rng Random) Question {
	q := Question{Kind: kind, CharacterID: c.ID, Image: c.Image}

	var field func(domain.Character) string
	switch kind {
	case QuestionSpecies:
		q.Prompt = fmt.Sprintf("What species is %s?", c.Name)
		field = func(x domain.Character) string { return x.Species }
	case QuestionOrigin:
		q.Prompt = fmt.Sprintf("Where is %s from?", c.Name)
		field = func(x domain.Character) string { return x.Origin }
	default:
		q.Prompt = "Who is this character?"
		field = func(x domain.Character) string { return x.Name }
	}

	q.CorrectAnswer = field(c)
	q.Options = append([]string{q.CorrectAnswer}, distractors(q.CorrectAnswer, c.ID, roster, field, rng)...)
	rng.Shuffle(len(q.Options), func(i, j int) { q.Options[i], q.Options[j] = q.Options[j], q.Options[i] })
	return q
}

// distractors returns up to maxDistractors distinct, non-empty values that
// differ from the correct answer.
func distractors(correct string, selfID int, roster []domain.Character, field func(domain.Character) string, rng Random) []string {
	seen := map[string]bool{correct: true}
	var pool []string
	for _, c := range roster {
		v := field(c)
		if c.ID == selfID || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		pool = append(pool, v)
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > maxDistractors {
		pool = pool[:maxDistractors]
	}
	return pool
}

// QuizXP is the reward for a finished quiz: base plus 20 at 80% correct or
// better, or plus 10 at 60% or better.
func QuizXP(base, correct, total int) int {
	if total <= 0 {
		return base
	}
	switch ratio := float64(correct) / float64(total); {
	case ratio >= 0.8:
		return base + 20
	case ratio >= 0.6:
		return base + 10
	default:
		return base
	}
}
