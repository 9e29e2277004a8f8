package parser

import (
	"regexp"
	"strings"

	"deskbridge/internal/domain/chat"
	"deskbridge/internal/domain/form"
)

// boldLabelLine matches "*Label*", "*Label:* value" and "*Label*: value".
var boldLabelLine = regexp.MustCompile(`^\*([^*\n]+?)\*\s*:?\s*(.*)$`)

func parseBlocks(blocks []chat.Block, rec *form.Record) {
	for _, b := range blocks {
		switch b.Type {
		case chat.BlockHeader:
			if b.Text != nil && rec.Header == "" {
				rec.Header = strings.TrimSpace(b.Text.Text)
			}
		case chat.BlockSection:
			if b.Text != nil {
				parseMrkdwn(b.Text.Text, rec)
			}
			for _, f := range b.Fields {
				parseMrkdwn(f.Text, rec)
			}
		case chat.BlockRichText:
			parseRichText(b.Elements, rec)
		}
	}
}

func cleanLabel(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ":"))
}

// fieldBuilder accumulates the value of the label most recently opened.
type fieldBuilder struct {
	rec   *form.Record
	label string
	value strings.Builder
	open  bool
}

func (fb *fieldBuilder) start(label string) {
	fb.flush()
	fb.label = label
	fb.open = label != ""
}

func (fb *fieldBuilder) write(s string) {
	if fb.open {
		fb.value.WriteString(s)
	}
}

func (fb *fieldBuilder) flush() {
	if fb.open {
		if v := strings.TrimSpace(fb.value.String()); v != "" {
			fb.rec.Add(fb.label, v)
		}
	}
	fb.open = false
	fb.label = ""
	fb.value.Reset()
}

// parseMrkdwn reads bold-labelled pairs from a section's mrkdwn text.
// Lines following a bare label line form its value.
func parseMrkdwn(text string, rec *form.Record) {
	fb := &fieldBuilder{rec: rec}
	for _, line := range strings.Split(text, "\n") {
		if m := boldLabelLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			fb.start(cleanLabel(m[1]))
			if v := strings.TrimSpace(m[2]); v != "" {
				fb.write(v + "\n")
			}
			continue
		}
		fb.write(line + "\n")
	}
	fb.flush()
}

type richToken struct {
	text string
	bold bool
}

// parseRichText treats a bold run at the start of a line as a label; the
// inline content that follows, up to the next label, is its value.
func parseRichText(elements []chat.RichElement, rec *form.Record) {
	var tokens []richToken
	flattenRich(elements, &tokens)

	fb := &fieldBuilder{rec: rec}
	atLineStart := true
	for _, tok := range tokens {
		if tok.bold && atLineStart && strings.TrimSpace(tok.text) != "" {
			fb.start(cleanLabel(tok.text))
			atLineStart = strings.HasSuffix(tok.text, "\n")
			continue
		}

		fb.write(tok.text)
		if strings.TrimSpace(tok.text) != "" {
			atLineStart = strings.HasSuffix(tok.text, "\n")
		} else if strings.Contains(tok.text, "\n") {
			atLineStart = true
		}
	}
	fb.flush()
}

func flattenRich(elements []chat.RichElement, out *[]richToken) {
	for _, e := range elements {
		switch e.Type {
		case "rich_text_section", "rich_text_preformatted", "rich_text_quote":
			flattenRich(e.Elements, out)
			*out = append(*out, richToken{text: "\n"})
		case "rich_text_list":
			for _, item := range e.Elements {
				*out = append(*out, richToken{text: "• "})
				flattenRich(item.Elements, out)
				*out = append(*out, richToken{text: "\n"})
			}
		default:
			*out = append(*out, richToken{text: inlineText(e), bold: e.IsBold()})
		}
	}
}

func inlineText(e chat.RichElement) string {
	switch e.Type {
	case "text":
		return e.Text
	case "user":
		return "<@" + e.UserID + ">"
	case "channel":
		return "<#" + e.ChannelID + ">"
	case "usergroup":
		return "<!subteam^" + e.UsergroupID + ">"
	case "broadcast":
		return "@" + e.Range
	case "emoji":
		return ":" + e.Name + ":"
	case "link":
		if e.Text != "" && e.Text != e.URL {
			return e.Text + " (" + e.URL + ")"
		}
		return e.URL
	default:
		return e.Text
	}
}
