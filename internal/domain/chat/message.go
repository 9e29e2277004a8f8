// Package chat holds the chat-side message model shared by the parser, the
// sync engine and the Slack adapter.
package chat

import "encoding/json"

// Message is the content of a chat message: its plain-text fallback and,
// when the sender used Block Kit, its structured blocks.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// HasBlocks reports whether the message carries structured layout.
func (m Message) HasBlocks() bool {
	return len(m.Blocks) > 0
}

// Block is the subset of a Block Kit block the parser understands:
// header, section, rich_text and context.
type Block struct {
	Type     string        `json:"type"`
	BlockID  string        `json:"block_id,omitempty"`
	Text     *TextObject   `json:"text,omitempty"`
	Fields   []TextObject  `json:"fields,omitempty"`
	Elements []RichElement `json:"elements,omitempty"`
}

const (
	BlockHeader   = "header"
	BlockSection  = "section"
	BlockRichText = "rich_text"
	BlockContext  = "context"
)

type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RichElement is a node of a rich_text block. Container nodes
// (rich_text_section, rich_text_list, rich_text_quote, rich_text_preformatted)
// hold inline nodes in Elements.
type RichElement struct {
	Type        string        `json:"type"`
	Text        string        `json:"text,omitempty"`
	Style       *RichStyle    `json:"style,omitempty"`
	UserID      string        `json:"user_id,omitempty"`
	ChannelID   string        `json:"channel_id,omitempty"`
	UsergroupID string        `json:"usergroup_id,omitempty"`
	URL         string        `json:"url,omitempty"`
	Name        string        `json:"name,omitempty"`
	Range       string        `json:"range,omitempty"`
	Elements    []RichElement `json:"elements,omitempty"`
}

// RichStyle is an inline node's text style. On rich_text_list nodes the
// wire value is a bare string ("bullet" or "ordered"), kept in List.
type RichStyle struct {
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Strike bool   `json:"strike,omitempty"`
	Code   bool   `json:"code,omitempty"`
	List   string `json:"-"`
}

func (s *RichStyle) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.List)
	}
	type plain RichStyle
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = RichStyle(p)
	return nil
}

// IsBold reports whether the inline node is rendered bold.
func (e RichElement) IsBold() bool {
	return e.Style != nil && e.Style.Bold
}
