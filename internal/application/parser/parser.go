// Package parser turns chat messages into parsed form records.
package parser

import (
	"context"

	"deskbridge/internal/domain/chat"
	"deskbridge/internal/domain/form"
	"deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
)

const defaultLookupConcurrency = 4

// Parser extracts label/value pairs from workflow form messages. Structured
// block layout is preferred; the plain-text fallback is only used when no
// block yields a field.
type Parser struct {
	users       chat.UserResolver
	logger      logger.Interface
	concurrency int
}

// NewParser creates a parser. users may be nil, in which case mention tokens
// without an inline name are left as they are.
func NewParser(users chat.UserResolver, log logger.Interface) *Parser {
	return &Parser{
		users:       users,
		logger:      log,
		concurrency: defaultLookupConcurrency,
	}
}

// Parse returns the record for msg, or a not_a_form error when the message
// holds no recognizable field. Malformed parts are skipped, never reported.
func (p *Parser) Parse(ctx context.Context, msg chat.Message) (*form.Record, error) {
	rec := form.NewRecord()

	parseBlocks(msg.Blocks, rec)
	if rec.Len() == 0 {
		parseText(msg.Text, rec)
	}
	if rec.Len() == 0 {
		return nil, errors.NewNotAFormError("message contains no label/value pairs")
	}

	texts := make([]string, 0, rec.Len()+1)
	texts = append(texts, rec.Header)
	for _, f := range rec.Fields {
		texts = append(texts, f.Value)
	}
	names := p.resolveMentions(ctx, texts...)

	rec.Header = normalize(substituteMentions(rec.Header, names))
	for i := range rec.Fields {
		rec.Fields[i].Value = normalize(substituteMentions(rec.Fields[i].Value, names))
	}
	for id, name := range names {
		rec.Mentions[id] = name
	}

	p.logger.Debugw("parsed form message",
		"fields", rec.Len(),
		"mentions", len(names),
		"structured", msg.HasBlocks(),
	)
	return rec, nil
}

// ReplaceMentions renders chat markup in free text: user mentions become
// @names, links and channel references become readable text.
func (p *Parser) ReplaceMentions(ctx context.Context, text string) string {
	names := p.resolveMentions(ctx, text)
	return normalize(substituteMentions(text, names))
}
