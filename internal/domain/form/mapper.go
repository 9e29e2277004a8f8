package form

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSubject is used when neither the template nor the submission yields a subject.
const DefaultSubject = "Ticket from Slack"

var (
	placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)
	tagUnsafe          = regexp.MustCompile(`[^a-z0-9_\-]+`)

	subjectAliases = []string{"Subject", "Title", "Summary"}
	priorities     = map[string]string{
		PriorityLow:    PriorityLow,
		PriorityNormal: PriorityNormal,
		PriorityHigh:   PriorityHigh,
		PriorityUrgent: PriorityUrgent,
		"critical":     PriorityUrgent,
		"medium":       PriorityNormal,
	}
)

// Map builds the ticket request for a parsed submission. It never fails:
// missing fields become empty values and fall back to defaults.
func Map(rec *Record, m Mapping) TicketRequest {
	req := TicketRequest{
		Subject:      subject(rec, m),
		Description:  RenderDescription(rec),
		TicketFormID: m.TicketFormID,
		GroupID:      m.Group.Resolve(rec),
		Priority:     priority(rec, m.PriorityField),
		Tags:         tags(m),
		Requester: Requester{
			Name:  rec.Source.Reporter.Name,
			Email: rec.Source.Reporter.Email,
		},
	}

	for _, target := range m.Fields {
		if v, ok := rec.Get(target.Source); ok {
			req.CustomFields = append(req.CustomFields, CustomField{ID: target.TargetID, Value: v})
		}
	}

	return req
}

// ResolveTemplate substitutes each {Field Name} with the submission's value
// for that label, or with the empty string when the label is absent.
func ResolveTemplate(template string, rec *Record) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.TrimSpace(token[1 : len(token)-1])
		v, _ := rec.Get(name)
		return v
	})
}

// Resolve returns the group for a submission: an exact (caseless) rule match
// first, then the first rule whose trigger the value contains, then the default.
func (g GroupRules) Resolve(rec *Record) int64 {
	def := g.DefaultGroupID
	rules := make([]GroupRule, 0, len(g.Rules))
	for _, r := range g.Rules {
		if fold(strings.TrimSpace(r.Match)) == DefaultMatch {
			if def == 0 {
				def = r.GroupID
			}
			continue
		}
		rules = append(rules, r)
	}

	if g.Field == "" {
		return def
	}
	value, ok := rec.Get(g.Field)
	value = fold(strings.TrimSpace(value))
	if !ok || value == "" {
		return def
	}

	for _, r := range rules {
		if fold(strings.TrimSpace(r.Match)) == value {
			return r.GroupID
		}
	}
	for _, r := range rules {
		trigger := fold(strings.TrimSpace(r.Match))
		if trigger != "" && strings.Contains(value, trigger) {
			return r.GroupID
		}
	}
	return def
}

// RenderDescription renders every parsed field in order, followed by where
// the submission came from.
func RenderDescription(rec *Record) string {
	var b strings.Builder

	if rec.Header != "" {
		b.WriteString(rec.Header)
		b.WriteString("\n\n")
	}
	for _, f := range rec.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}

	src := rec.Source
	var meta []string
	if src.Permalink != "" {
		meta = append(meta, "Slack Message: "+src.Permalink)
	}
	if src.Reporter.Name != "" {
		meta = append(meta, "Reported by: "+src.Reporter.Name)
	}
	if src.Reporter.Email != "" {
		meta = append(meta, "Email: "+src.Reporter.Email)
	}
	switch {
	case src.ChannelName != "":
		meta = append(meta, "Channel: #"+src.ChannelName)
	case src.ChannelID != "":
		meta = append(meta, "Channel: "+src.ChannelID)
	}
	if len(meta) > 0 {
		b.WriteString("\n---\n")
		b.WriteString(strings.Join(meta, "\n"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func subject(rec *Record, m Mapping) string {
	if m.SubjectTemplate != "" {
		return ResolveTemplate(m.SubjectTemplate, rec)
	}
	if h := strings.TrimSpace(rec.Header); h != "" {
		return h
	}
	if v, ok := rec.First(subjectAliases...); ok {
		return strings.TrimSpace(v)
	}
	return DefaultSubject
}

func priority(rec *Record, field string) string {
	if field == "" {
		return PriorityNormal
	}
	v, ok := rec.Get(field)
	if !ok {
		return PriorityNormal
	}
	if p, ok := priorities[fold(strings.TrimSpace(v))]; ok {
		return p
	}
	return PriorityNormal
}

func tags(m Mapping) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		t = tagUnsafe.ReplaceAllString(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t)), " ", "_"), "")
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}

	for _, t := range BaseTags {
		add(t)
	}
	if m.Key != "" {
		add("form_" + m.Key)
	}
	for _, t := range m.Tags {
		add(t)
	}
	return out
}
