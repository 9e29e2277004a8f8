package bridge

// Outcome is what the engine did with an inbound event.
type Outcome string

const (
	OutcomeIgnored       Outcome = "ignored"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeUnauthorized  Outcome = "unauthorized"
	OutcomeNotAForm      Outcome = "not_a_form"
	OutcomeUnmapped      Outcome = "unmapped"
	OutcomeFiltered      Outcome = "filtered"
	OutcomeTicketCreated Outcome = "ticket_created"
	OutcomeRelayed       Outcome = "relayed"
	OutcomeFailed        Outcome = "failed"
)

func (o Outcome) String() string {
	return string(o)
}
