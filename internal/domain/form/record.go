// Package form models parsed form submissions and their mapping onto ticket
// creation requests.
package form

import (
	"strings"

	"golang.org/x/text/cases"
)

// Field is one label/value pair of a submission, in message order.
type Field struct {
	Label string
	Value string
}

// Reporter is the chat user who submitted the form.
type Reporter struct {
	ID    string
	Name  string
	Email string
}

// Source describes where a submission came from. Every field is optional.
type Source struct {
	ChannelID   string
	ChannelName string
	MessageTS   string
	Permalink   string
	Reporter    Reporter
}

// Record is a parsed form submission.
type Record struct {
	Header string
	Fields []Field
	// Mentions maps user ids found in values to the display names substituted for them.
	Mentions map[string]string
	Source   Source
}

func NewRecord() *Record {
	return &Record{Mentions: make(map[string]string)}
}

// Add appends a field. A repeated label keeps its first position and takes the later value.
func (r *Record) Add(label, value string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	for i := range r.Fields {
		if r.Fields[i].Label == label {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Label: label, Value: value})
}

// Get looks a label up exactly, then case-insensitively.
func (r *Record) Get(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	folded := fold(label)
	for _, f := range r.Fields {
		if fold(f.Label) == folded {
			return f.Value, true
		}
	}
	return "", false
}

// First returns the value of the first label present.
func (r *Record) First(labels ...string) (string, bool) {
	for _, l := range labels {
		if v, ok := r.Get(l); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

func (r *Record) Len() int {
	return len(r.Fields)
}

// fold case-folds s for caseless comparison. A Caser is not safe for
// concurrent use, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
