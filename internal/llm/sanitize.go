package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/halcyonfi/namewise/internal/common"
)

// labelPrefixes are leading labels a model sometimes attaches despite being
// told not to.
var labelPrefixes = []string{
	"merchant name:",
	"business name:",
	"the name is:",
	"the name is",
	"answer:",
	"output:",
	"result:",
	"name:",
}

// echoMarkers indicate the model replied with commentary or a restatement of
// the instructions instead of a name.
var echoMarkers = []string{
	"extract the",
	"the merchant name",
	"the business name",
	"please provide",
	"i cannot",
	"i'm sorry",
	"as an ai",
	"based on the",
	"transaction description",
}

const (
	minNameLength = 3
	maxNameLength = 60
)

// Sanitize reduces a raw model completion to a usable candidate string. It
// returns an error wrapping common.ErrEmptyResponse when nothing usable
// remains; such responses contribute no candidate.
func Sanitize(raw, input string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", common.ErrEmptyResponse
	}

	// Drop markdown fences, then keep only the first non-empty line. Models
	// that explain themselves put the name first and the essay after.
	text = strings.ReplaceAll(text, "```", "")
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			text = line
			break
		}
	}

	lower := strings.ToLower(text)
	for _, marker := range echoMarkers {
		if strings.Contains(lower, marker) {
			return "", fmt.Errorf("%w: response echoes the prompt: %q", common.ErrEmptyResponse, raw)
		}
	}

	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(strings.ToLower(text), prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}

	text = strings.Trim(text, "\"'` ")
	text = strings.TrimSuffix(text, ".")
	text = strings.TrimSpace(text)

	if n := utf8.RuneCountInString(text); n < minNameLength || n > maxNameLength {
		return "", fmt.Errorf("%w: response length %d outside usable range: %q", common.ErrEmptyResponse, n, raw)
	}

	// A verbatim echo of the statement text adds no information.
	if strings.EqualFold(text, strings.TrimSpace(input)) {
		return "", fmt.Errorf("%w: response repeats the input", common.ErrEmptyResponse)
	}

	return text, nil
}
