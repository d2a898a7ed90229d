// Package mechanics implements the per-route minigames: the wheel, the quiz
// and free-form answers.
package mechanics

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/brinda/clasico/internal/clasico"
)

// DefaultMaxLength bounds text answers when the route does not set a limit.
const DefaultMaxLength = 280

type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type Spin struct {
	Option clasico.WheelOption `json:"option"`
	Index  int                 `json:"index"`
	// Degrees is the clockwise rotation that lands the wheel on Option.
	Degrees float64 `json:"degrees"`
}

// SpinWheel picks one wheel option uniformly. A nil rng uses the global source.
func SpinWheel(route clasico.Route, rng Rand) (Spin, error) {
	m := route.Mechanics
	if m.Type != clasico.MechanicWheel || len(m.Options) == 0 {
		return Spin{}, fmt.Errorf("%w: route %s has no wheel", clasico.ErrInvalidRequest, route.ID)
	}
	if rng == nil {
		rng = globalRand{}
	}
	n := len(m.Options)
	i := rng.IntN(n)
	segment := 360 / float64(n)
	rotations := 2 + rng.IntN(4)
	return Spin{
		Option:  m.Options[i],
		Index:   i,
		Degrees: float64(rotations*360) + float64(n-1-i)*segment + segment/2,
	}, nil
}

type QuestionResult struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
}

type QuizResult struct {
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

// Perfect reports whether every question was answered correctly.
func (r QuizResult) Perfect() bool { return r.Total > 0 && r.Score == r.Total }

// ScoreQuiz grades answers against the route's questions in order. Answers
// match case-insensitively after trimming.
func ScoreQuiz(route clasico.Route, answers []string) (QuizResult, error) {
	qs := route.Mechanics.Questions
	if route.Mechanics.Type != clasico.MechanicQuiz || len(qs) == 0 {
		return QuizResult{}, fmt.Errorf("%w: route %s has no quiz", clasico.ErrInvalidRequest, route.ID)
	}
	if len(answers) != len(qs) {
		return QuizResult{}, fmt.Errorf("%w: %d answers for %d questions", clasico.ErrInvalidRequest, len(answers), len(qs))
	}
	res := QuizResult{Total: len(qs), Results: make([]QuestionResult, len(qs))}
	for i, q := range qs {
		ok := strings.EqualFold(strings.TrimSpace(answers[i]), q.CorrectAnswer)
		if ok {
			res.Score++
		}
		res.Results[i] = QuestionResult{
			Question:      q.Text,
			Answer:        answers[i],
			CorrectAnswer: q.CorrectAnswer,
			Correct:       ok,
		}
	}
	return res, nil
}

// ValidateResponse checks a free-form text answer against the route limits.
func ValidateResponse(route clasico.Route, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty response", clasico.ErrInvalidRequest)
	}
	limit := route.Mechanics.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	if n := utf8.RuneCountInString(text); n > limit {
		return fmt.Errorf("%w: response has %d characters, limit is %d", clasico.ErrInvalidRequest, n, limit)
	}
	return nil
}
