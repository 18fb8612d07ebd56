package repl

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
)

// ErrUnterminatedQuote is returned by Split for a line with an open quote
// or a trailing backslash.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Split breaks a line into words with POSIX shell quoting. Single quotes
// keep their content literally, a backslash escapes the next character,
// and a word starting with # comments out the rest of the line.
func Split(line string) ([]string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnterminatedQuote, err)
	}
	if len(words) == 0 {
		return nil, nil
	}
	return words, nil
}
