package parser

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	mentionToken   = regexp.MustCompile(`<@([UW][A-Z0-9]+)(?:\|([^>]*))?>`)
	channelToken   = regexp.MustCompile(`<#([CG][A-Z0-9]+)(?:\|([^>]*))?>`)
	linkToken      = regexp.MustCompile(`<((?:https?|mailto):[^|>]+)(?:\|([^>]+))?>`)
	specialMention = regexp.MustCompile(`<!(here|channel|everyone)(?:\|[^>]*)?>`)
	slackEscapes   = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// resolveMentions returns display names for the user ids mentioned in texts.
// Inline names are used as is; the rest are looked up concurrently. Failed
// lookups are logged and left out.
func (p *Parser) resolveMentions(ctx context.Context, texts ...string) map[string]string {
	names := make(map[string]string)
	pending := make(map[string]struct{})

	for _, text := range texts {
		for _, m := range mentionToken.FindAllStringSubmatch(text, -1) {
			if m[2] != "" {
				names[m[1]] = m[2]
				continue
			}
			pending[m[1]] = struct{}{}
		}
	}
	for id := range names {
		delete(pending, id)
	}
	if p.users == nil || len(pending) == 0 {
		return names
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for id := range pending {
		g.Go(func() error {
			profile, err := p.users.ResolveUser(gctx, id)
			if err != nil || profile == nil {
				p.logger.Warnw("failed to resolve user mention, keeping raw token",
					"user_id", id,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			names[id] = profile.Name()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return names
}

func substituteMentions(text string, names map[string]string) string {
	return mentionToken.ReplaceAllStringFunc(text, func(tok string) string {
		m := mentionToken.FindStringSubmatch(tok)
		if name := names[m[1]]; name != "" {
			return "@" + name
		}
		return tok
	})
}

// normalize turns the remaining chat markup into readable text.
func normalize(text string) string {
	text = channelToken.ReplaceAllStringFunc(text, func(tok string) string {
		m := channelToken.FindStringSubmatch(tok)
		if m[2] != "" {
			return "#" + m[2]
		}
		return tok
	})
	text = linkToken.ReplaceAllStringFunc(text, func(tok string) string {
		m := linkToken.FindStringSubmatch(tok)
		url := strings.TrimPrefix(m[1], "mailto:")
		if m[2] == "" || m[2] == url {
			return url
		}
		return m[2] + " (" + url + ")"
	})
	text = specialMention.ReplaceAllString(text, "@$1")
	return slackEscapes.Replace(text)
}
