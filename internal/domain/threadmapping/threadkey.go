package threadmapping

import (
	"fmt"
	"strings"
)

// ThreadKey identifies a chat thread by its channel and root message timestamp.
type ThreadKey struct {
	ChannelID string
	ThreadTS  string
}

func NewThreadKey(channelID, threadTS string) (ThreadKey, error) {
	channelID = strings.TrimSpace(channelID)
	threadTS = strings.TrimSpace(threadTS)
	if channelID == "" || threadTS == "" || strings.Contains(channelID, ":") {
		return ThreadKey{}, fmt.Errorf("%w: channel=%q ts=%q", ErrInvalidThreadKey, channelID, threadTS)
	}
	return ThreadKey{ChannelID: channelID, ThreadTS: threadTS}, nil
}

// ParseThreadKey reverses String.
func ParseThreadKey(s string) (ThreadKey, error) {
	channelID, ts, ok := strings.Cut(s, ":")
	if !ok {
		return ThreadKey{}, fmt.Errorf("%w: %q", ErrInvalidThreadKey, s)
	}
	return NewThreadKey(channelID, ts)
}

// String renders the key as "channel:ts", the persisted form.
func (k ThreadKey) String() string {
	return k.ChannelID + ":" + k.ThreadTS
}

func (k ThreadKey) IsZero() bool {
	return k.ChannelID == "" && k.ThreadTS == ""
}
