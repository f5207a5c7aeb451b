package webpage

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer splits text into tokens for budgeting.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenTokenizer is a Tokenizer over a tiktoken encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the encoding for a model name or an encoding name
// such as cl100k_base.
func NewTiktokenTokenizer(name string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding %q: %w", name, err)
		}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Encode returns the BPE token ids of text.
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode returns the text of tokens. A slice cut mid-rune decodes to
// invalid UTF-8.
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// RuneTokenizer treats every rune as a token. It is used when no tiktoken
// encoding can be loaded.
type RuneTokenizer struct{}

// Encode returns one token per rune.
func (RuneTokenizer) Encode(text string) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = int(r)
	}
	return out
}

// Decode turns runes back into text.
func (RuneTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

// CountTokens returns the number of tokens in text.
func CountTokens(tok Tokenizer, text string) int {
	return len(tok.Encode(text))
}

// Truncate keeps text within maxTokens, preserving its head and tail and
// marking the cut.
func Truncate(tok Tokenizer, text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	tokens := tok.Encode(text)
	if len(tokens) <= maxTokens {
		return text
	}
	half := maxTokens / 2
	head := strings.ToValidUTF8(tok.Decode(tokens[:half]), "")
	tail := strings.ToValidUTF8(tok.Decode(tokens[len(tokens)-(maxTokens-half):]), "")
	return head + fmt.Sprintf("\n..._This content has been truncated to stay below %d tokens_...\n", maxTokens) + tail
}
