// Package relay decides which content may cross between chat and the ticketing
// system. Every relayed body carries a fixed signature; content that already
// carries it came from the bridge and is never relayed again.
package relay

import "strings"

// DefaultSignature is appended to every relayed body unless configured otherwise.
const DefaultSignature = "[synced by deskbridge]"

// Signature is the marker appended to relayed content.
type Signature string

// Sign appends the signature once. Already signed content is returned as is.
func (s Signature) Sign(content string) string {
	if s.Marks(content) {
		return content
	}
	content = strings.TrimRight(content, " \t\r\n")
	if content == "" {
		return string(s)
	}
	return content + "\n\n" + string(s)
}

// Marks reports whether content carries the signature.
func (s Signature) Marks(content string) bool {
	return s != "" && strings.Contains(content, string(s))
}

// Filter is the loop breaker consulted before every relay.
type Filter struct {
	signature Signature
}

func NewFilter(signature Signature) *Filter {
	if signature == "" {
		signature = DefaultSignature
	}
	return &Filter{signature: signature}
}

func (f *Filter) Signature() Signature {
	return f.signature
}

// ShouldRelay is false for blank content and for content that already passed
// through the bridge.
func (f *Filter) ShouldRelay(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	return !f.signature.Marks(content)
}

// Sign appends the filter's signature.
func (f *Filter) Sign(content string) string {
	return f.signature.Sign(content)
}
