package prompt

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator counts tokens for budgeting. Counts are advisory; the
// builder only needs them to stay under the input cap.
type TokenEstimator interface {
	Count(text string) int
}

type tiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

func (e *tiktokenEstimator) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// charEstimator approximates 4 characters per token.
type charEstimator struct{}

func (charEstimator) Count(text string) int {
	return len(text)/4 + 1
}

// NewEstimator returns a cl100k_base token counter, or the character
// heuristic when the encoding data is unavailable (offline environments).
func NewEstimator() TokenEstimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Debug("Token encoding unavailable, using character heuristic", "error", err)
		return charEstimator{}
	}
	return &tiktokenEstimator{enc: enc}
}
