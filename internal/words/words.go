// apps/game-session/internal/words/words.go
//
// Word lists for the word-checking service.
//
// Responsibilities:
//   - Load answer and allowed guess lists from files, or fall back to the
//     lists embedded in the assets package.
//   - Keep sets for quick lookups (answers only, answers∪guesses).
//   - Pick random answers and answers by index (daily mode).
//
// Load behavior:
//   1. answers and allowed paths both set: one list from each file.
//   2. only allowed set: that file serves as both lists.
//   3. neither set: embedded assets.
//
// Words must be 5 letters a–z; everything is lowercased and anything else is
// skipped.

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/robalobadob/wordle/apps/game-session/assets"
)

// ErrEmpty is returned when no usable answers were loaded.
var ErrEmpty = errors.New("words: answers list is empty")

// Lists is an immutable pair of word lists. Safe for concurrent use.
type Lists struct {
	answers    []string
	answersSet map[string]struct{}
	allowedSet map[string]struct{} // answers ∪ guesses
}

// Load reads the lists described in the package comment.
func Load(answersPath, allowedPath string) (*Lists, error) {
	var ansList, allowList []string
	var err error

	switch {
	case answersPath != "" && allowedPath != "":
		if ansList, err = readWordFile(answersPath); err != nil {
			return nil, err
		}
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, err
		}
	case allowedPath != "":
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, err
		}
		ansList = allowList
	default:
		raw, err := assets.AnswersList()
		if err != nil {
			return nil, fmt.Errorf("embedded answers: %w", err)
		}
		ansList = normalize(raw)
		raw, err = assets.AllowedList()
		if err != nil {
			return nil, fmt.Errorf("embedded allowed: %w", err)
		}
		allowList = normalize(raw)
	}
	return New(ansList, allowList)
}

// New builds lists from in-memory words. Answers are always allowed.
func New(answers, allowed []string) (*Lists, error) {
	ans := normalize(answers)
	if len(ans) == 0 {
		return nil, ErrEmpty
	}
	l := &Lists{
		answers:    ans,
		answersSet: toSet(ans),
		allowedSet: toSet(ans),
	}
	for _, w := range normalize(allowed) {
		l.allowedSet[w] = struct{}{}
	}
	return l, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return normalize(out), nil
}

// normalize lowercases, trims, and keeps only valid 5-letter words.
func normalize(in []string) []string {
	var out []string
	for _, line := range in {
		w := strings.TrimSpace(strings.ToLower(line))
		if len(w) == 5 && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Random returns a cryptographically random answer.
func (l *Lists) Random() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.answers))))
	if err != nil {
		return l.answers[0]
	}
	return l.answers[n.Int64()]
}

// At returns the answer at i modulo the list length.
func (l *Lists) At(i int) string {
	if i < 0 {
		i = -i
	}
	return l.answers[i%len(l.answers)]
}

// Len is the number of answers.
func (l *Lists) Len() int { return len(l.answers) }

// IsAllowed reports whether w is a valid guess (answers ∪ guesses).
func (l *Lists) IsAllowed(w string) bool {
	_, ok := l.allowedSet[strings.ToLower(w)]
	return ok
}

// IsAnswer reports whether w is an answer word.
func (l *Lists) IsAnswer(w string) bool {
	_, ok := l.answersSet[strings.ToLower(w)]
	return ok
}

// Stats returns counts of loaded words: (answers, allowed).
func (l *Lists) Stats() (answersCount int, allowedCount int) {
	return len(l.answers), len(l.allowedSet)
}
