package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoMessages is returned when a messages file holds no messages.
var ErrNoMessages = errors.New("no messages found in the input file")

type messagesFile struct {
	Messages []string `json:"messages"`
}

// LoadMessages reads a {"messages": [...]} file.
func LoadMessages(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading messages file: %w", err)
	}
	msgs, err := ParseMessages(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msgs, nil
}

// CleanMessages returns msgs without blank or whitespace-only entries.
func CleanMessages(msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ParseMessages decodes a messages document. Blank messages are dropped;
// a document with none left is ErrNoMessages.
func ParseMessages(data []byte) ([]string, error) {
	var doc messagesFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing messages: %w", err)
	}
	msgs := CleanMessages(doc.Messages)
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	return msgs, nil
}
