package questions

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"wagerquiz/internal/game"
)

// DefaultQuestion is served when no question list was loaded.
var DefaultQuestion = game.Question{
	Text:   "What question would you like to be asked?",
	Answer: 0,
}

// Rotation hands out a fixed list of questions in a loop. The list is
// shuffled once when the rotation is built; concurrent callers each get their
// own slot.
type Rotation struct {
	questions []game.Question
	next      atomic.Uint64
}

// NewRotation copies qs and shuffles the copy with rng. A nil rng keeps the
// given order.
func NewRotation(qs []game.Question, rng *rand.Rand) *Rotation {
	r := &Rotation{questions: append([]game.Question(nil), qs...)}
	if rng != nil {
		rng.Shuffle(len(r.questions), func(i, j int) {
			r.questions[i], r.questions[j] = r.questions[j], r.questions[i]
		})
	}
	return r
}

// Next returns the question in the next slot, wrapping to the start of the
// list, or DefaultQuestion when the list is empty.
func (r *Rotation) Next() game.Question {
	if len(r.questions) == 0 {
		return DefaultQuestion
	}
	slot := r.next.Add(1) - 1
	return r.questions[slot%uint64(len(r.questions))]
}

func (r *Rotation) Len() int {
	return len(r.questions)
}

// LoadFile reads a question list with one "question,answer" pair per line.
// The answer follows the last comma so question text may contain commas.
// Blank lines are skipped.
func LoadFile(path string) ([]game.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions file: %w", err)
	}
	defer f.Close()

	var qs []game.Question
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		q, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		qs = append(qs, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return qs, nil
}

func parseLine(text string) (game.Question, error) {
	i := strings.LastIndex(text, ",")
	if i < 0 {
		return game.Question{}, fmt.Errorf("expected \"question,answer\", got %q", text)
	}
	answer, err := strconv.ParseUint(strings.TrimSpace(text[i+1:]), 10, 32)
	if err != nil {
		return game.Question{}, fmt.Errorf("value after comma should be a number: %q", text)
	}
	return game.Question{
		Text:   strings.TrimSpace(text[:i]),
		Answer: uint32(answer),
	}, nil
}
