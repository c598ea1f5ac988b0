package training

import (
	"fmt"
	"strings"
)

// Round is one question: name the flavor of a terpene.
type Round struct {
	Profile  Profile
	Options  []Profile
	Hints    []string
	Revealed bool
	Guess    string
	Correct  bool
}

// Session is a player's run through the game.
type Session struct {
	ID         string
	Difficulty Difficulty
	Round      Round
	Strikes    int
	Streak     int
	BestStreak int
	Feedback   string
}

// NewSession starts a session at the given difficulty with a fresh round.
func NewSession(g *Game, d Difficulty) (*Session, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("training.new_session: %w: %q", ErrInvalidDifficulty, d)
	}
	s := &Session{Difficulty: d}
	s.deal(g)
	return s, nil
}

// GameOver reports whether the strike limit was reached.
func (s *Session) GameOver() bool { return s.Strikes >= MaxStrikes }

// Guess answers the current round. Comparison ignores case and surrounding space.
func (s *Session) Guess(guess string) (bool, error) {
	const op = "training.guess"
	switch {
	case s.Difficulty == JustLearning:
		return false, fmt.Errorf("%s: %w", op, ErrNotPlayable)
	case s.GameOver():
		return false, fmt.Errorf("%s: %w", op, ErrGameOver)
	case s.Round.Revealed:
		return false, fmt.Errorf("%s: %w", op, ErrRoundClosed)
	}
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return false, fmt.Errorf("%s: %w", op, ErrEmptyGuess)
	}

	p := s.Round.Profile
	s.Round.Revealed = true
	s.Round.Guess = guess
	s.Round.Correct = strings.EqualFold(guess, p.Flavor)
	if s.Round.Correct {
		s.Streak++
		if s.Streak > s.BestStreak {
			s.BestStreak = s.Streak
		}
		s.Feedback = fmt.Sprintf("Correct! The flavor of %s is %s.", p.Terpene, p.Flavor)
	} else {
		s.Strikes++
		s.Streak = 0
		s.Feedback = fmt.Sprintf("Wrong! The correct flavor for %s is %s.", p.Terpene, p.Flavor)
	}
	return s.Round.Correct, nil
}

// Hint reveals the next clue: effects, then fun fact, then notable strains.
func (s *Session) Hint() (string, error) {
	const op = "training.hint"
	switch {
	case s.Difficulty == JustLearning:
		return "", fmt.Errorf("%s: %w", op, ErrNotPlayable)
	case s.GameOver():
		return "", fmt.Errorf("%s: %w", op, ErrGameOver)
	case s.Round.Revealed:
		return "", fmt.Errorf("%s: %w", op, ErrRoundClosed)
	case len(s.Round.Hints) >= MaxHints:
		return "", fmt.Errorf("%s: %w", op, ErrNoHintsLeft)
	}
	p := s.Round.Profile
	clues := [MaxHints]string{p.Effects, p.FunFact, p.NotableStrains}
	hint := clues[len(s.Round.Hints)]
	s.Round.Hints = append(s.Round.Hints, hint)
	return hint, nil
}

// Next moves to a new round once the current one is answered.
func (s *Session) Next(g *Game) error {
	const op = "training.next"
	if s.GameOver() {
		return fmt.Errorf("%s: %w", op, ErrGameOver)
	}
	if !s.Round.Revealed {
		return fmt.Errorf("%s: %w", op, ErrRoundOpen)
	}
	s.deal(g)
	return nil
}

// Restart clears strikes, streak and hints and deals a new round.
func (s *Session) Restart(g *Game) {
	s.Strikes = 0
	s.Streak = 0
	s.deal(g)
}

func (s *Session) deal(g *Game) {
	p := g.RandomProfile()
	s.Round = Round{Profile: p}
	s.Feedback = ""
	switch s.Difficulty {
	case MultipleChoice:
		s.Round.Options = g.Options(p)
	case JustLearning:
		s.Round.Revealed = true
	}
}

// View is the player-facing state. The answer and details are withheld until
// the round is revealed.
type View struct {
	ID         string     `json:"id"`
	Difficulty Difficulty `json:"difficulty"`
	Terpene    string     `json:"terpene"`
	Options    []string   `json:"options,omitempty"`
	Hints      []string   `json:"hints"`
	HintsLeft  int        `json:"hintsLeft"`
	Revealed   bool       `json:"revealed"`
	Answer     *Profile   `json:"answer,omitempty"`
	Guess      string     `json:"guess,omitempty"`
	Correct    bool       `json:"correct"`
	Feedback   string     `json:"feedback,omitempty"`
	Strikes    int        `json:"strikes"`
	MaxStrikes int        `json:"maxStrikes"`
	Streak     int        `json:"streak"`
	BestStreak int        `json:"bestStreak"`
	GameOver   bool       `json:"gameOver"`
}

// View renders the session for clients.
func (s *Session) View() View {
	v := View{
		ID:         s.ID,
		Difficulty: s.Difficulty,
		Terpene:    s.Round.Profile.Terpene,
		Hints:      append([]string{}, s.Round.Hints...),
		HintsLeft:  MaxHints - len(s.Round.Hints),
		Revealed:   s.Round.Revealed,
		Guess:      s.Round.Guess,
		Correct:    s.Round.Correct,
		Feedback:   s.Feedback,
		Strikes:    s.Strikes,
		MaxStrikes: MaxStrikes,
		Streak:     s.Streak,
		BestStreak: s.BestStreak,
		GameOver:   s.GameOver(),
	}
	for _, o := range s.Round.Options {
		v.Options = append(v.Options, o.Flavor)
	}
	if s.Round.Revealed {
		p := s.Round.Profile
		v.Answer = &p
	}
	return v
}

// Clone returns a deep copy so stored sessions are not aliased by callers.
func (s *Session) Clone() *Session {
	c := *s
	c.Round.Options = append([]Profile(nil), s.Round.Options...)
	c.Round.Hints = append([]string(nil), s.Round.Hints...)
	return &c
}
