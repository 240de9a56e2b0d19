package models

import (
	"fmt"
	"time"
)

// Message is one chat entry. The timestamp is set at creation and never
// changes afterwards.
type Message struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// GroupChat is the append-only message log for one group. Messages are
// never edited or removed.
type GroupChat struct {
	Messages []Message `json:"messages"`
}

// NewGroupChat returns an empty chat log.
func NewGroupChat() *GroupChat {
	return &GroupChat{Messages: []Message{}}
}

// Append adds a message authored now and returns it.
func (c *GroupChat) Append(author, text string) (Message, error) {
	if author == "" {
		return Message{}, fmt.Errorf("%w: message author is required", ErrInvalidArgument)
	}
	m := Message{
		Author:    author,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	c.Messages = append(c.Messages, m)
	return m, nil
}
