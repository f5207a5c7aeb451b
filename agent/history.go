package agent

import "github.com/sweetpotato0/hfagents/message"

const defaultHistorySize = 100

// history is the conversation of one agent. When it grows past maxSize the
// oldest non-system messages are dropped.
type history struct {
	messages []*message.Message
	maxSize  int
}

func newHistory(maxSize int) *history {
	if maxSize <= 0 {
		maxSize = defaultHistorySize
	}
	return &history{maxSize: maxSize}
}

func (h *history) add(msg *message.Message) {
	h.messages = append(h.messages, msg)
	if len(h.messages) <= h.maxSize {
		return
	}

	var system, rest []*message.Message
	for _, m := range h.messages {
		if m.Role == message.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	keep := h.maxSize - len(system)
	if keep < 0 {
		keep = 0
	}
	if len(rest) > keep {
		rest = rest[len(rest)-keep:]
	}
	// A tool response must follow the assistant message that requested it.
	for len(rest) > 0 && rest[0].Role == message.RoleTool {
		rest = rest[1:]
	}
	h.messages = append(system, rest...)
}

func (h *history) all() []*message.Message {
	out := make([]*message.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *history) reset() {
	h.messages = nil
}
