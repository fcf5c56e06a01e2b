package accumulator

import (
	"fmt"
	"strings"
)

// Channel selects one of the two content streams of a session.
type Channel int

const (
	// ChannelUnknown is the zero value. Operations treat it as routine misuse.
	ChannelUnknown Channel = iota

	// ChannelThinking carries intermediate reasoning output. Reads are non-destructive.
	ChannelThinking

	// ChannelReply carries the final answer. Reading it finalizes the session.
	ChannelReply
)

// String returns the lowercase channel name used in logs and metric labels.
func (c Channel) String() string {
	switch c {
	case ChannelUnknown:
		return "unknown"
	case ChannelThinking:
		return "thinking"
	case ChannelReply:
		return "reply"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel parses a channel name ("thinking" or "reply").
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thinking":
		return ChannelThinking, nil
	case "reply":
		return ChannelReply, nil
	default:
		return ChannelUnknown, fmt.Errorf("invalid channel: %q (valid: thinking, reply)", s)
	}
}

// mustCheck reports whether c names a real channel. It returns false for
// ChannelUnknown and panics for values outside the enum.
func (c Channel) mustCheck() bool {
	switch c {
	case ChannelThinking, ChannelReply:
		return true
	case ChannelUnknown:
		return false
	default:
		panic(fmt.Sprintf("accumulator: unrecognized channel %d", int(c)))
	}
}
