package form

// CustomField is a ticket custom field assignment.
type CustomField struct {
	ID    int64
	Value string
}

type Requester struct {
	Name  string
	Email string
}

// TicketRequest is a ticket creation request, independent of the ticketing API.
type TicketRequest struct {
	Subject      string
	Description  string
	TicketFormID int64
	CustomFields []CustomField
	GroupID      int64
	Priority     string
	Tags         []string
	Requester    Requester
	// ExternalID carries the originating thread key.
	ExternalID string
}

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// BaseTags are attached to every ticket the bridge creates.
var BaseTags = []string{"slack", "automated"}
