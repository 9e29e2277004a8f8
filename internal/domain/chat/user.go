package chat

import "context"

// UserProfile is what the bridge needs to know about a chat user.
type UserProfile struct {
	ID          string
	DisplayName string
	RealName    string
	Email       string
	IsBot       bool
}

// Name returns the display name, falling back to the real name and then the id.
func (p *UserProfile) Name() string {
	switch {
	case p == nil:
		return ""
	case p.DisplayName != "":
		return p.DisplayName
	case p.RealName != "":
		return p.RealName
	default:
		return p.ID
	}
}

// UserResolver looks up chat users by id.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (*UserProfile, error)
}
