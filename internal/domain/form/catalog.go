package form

import (
	"fmt"
	"sort"
	"strings"
)

// FieldTarget maps a submission label to a ticket custom field.
type FieldTarget struct {
	Source   string
	TargetID int64
}

// GroupRule routes a ticket to GroupID when the rule field matches Match.
type GroupRule struct {
	Match   string
	GroupID int64
}

// DefaultMatch is the rule trigger that names the default group.
const DefaultMatch = "default"

type GroupRules struct {
	Field          string
	Rules          []GroupRule
	DefaultGroupID int64
}

// Mapping is the static configuration for one kind of form.
type Mapping struct {
	Key             string
	TicketFormID    int64
	SubjectTemplate string
	Fields          []FieldTarget
	Group           GroupRules
	PriorityField   string
	Tags            []string
}

// ChannelRoute authorizes a channel and names the form it submits.
type ChannelRoute struct {
	ChannelID string
	FormKey   string
}

// Catalog is the closed set of configured forms and the channel allowlist.
type Catalog struct {
	forms  map[string]Mapping
	routes map[string]ChannelRoute
}

func NewCatalog(forms []Mapping, routes []ChannelRoute) (*Catalog, error) {
	c := &Catalog{
		forms:  make(map[string]Mapping, len(forms)),
		routes: make(map[string]ChannelRoute, len(routes)),
	}

	for _, f := range forms {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return nil, fmt.Errorf("form mapping without key")
		}
		if _, dup := c.forms[key]; dup {
			return nil, fmt.Errorf("duplicate form mapping %q", key)
		}
		f.Key = key
		c.forms[key] = f
	}

	for _, r := range routes {
		if r.ChannelID == "" {
			return nil, fmt.Errorf("channel route without channel id")
		}
		if _, ok := c.forms[r.FormKey]; !ok {
			return nil, fmt.Errorf("channel %s references unknown form %q", r.ChannelID, r.FormKey)
		}
		if _, dup := c.routes[r.ChannelID]; dup {
			return nil, fmt.Errorf("channel %s configured twice", r.ChannelID)
		}
		c.routes[r.ChannelID] = r
	}

	return c, nil
}

// IsAuthorized reports whether the channel is on the allowlist.
func (c *Catalog) IsAuthorized(channelID string) bool {
	_, ok := c.routes[channelID]
	return ok
}

// Lookup returns the form mapping submitted from channelID.
func (c *Catalog) Lookup(channelID string) (Mapping, bool) {
	route, ok := c.routes[channelID]
	if !ok {
		return Mapping{}, false
	}
	m, ok := c.forms[route.FormKey]
	return m, ok
}

// Channels lists the authorized channel ids in sorted order.
func (c *Catalog) Channels() []string {
	ids := make([]string, 0, len(c.routes))
	for id := range c.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
