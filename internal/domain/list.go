package domain

// Action is the toggle offered to a user for one list. It is always the
// inverse of the user's current membership.
type Action string

const (
	ActionSubscribe   Action = "subscribe"
	ActionUnsubscribe Action = "unsubscribe"
)

// Inverse returns the opposite action.
func (a Action) Inverse() Action {
	if a == ActionSubscribe {
		return ActionUnsubscribe
	}
	return ActionSubscribe
}

// ActionFor derives the available action from current membership.
func ActionFor(isMember bool) Action {
	if isMember {
		return ActionUnsubscribe
	}
	return ActionSubscribe
}

// MailingList is a list (audience) on the remote platform.
type MailingList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubscriptionView is a list together with the action available to the user.
type SubscriptionView struct {
	MailingList
	Action Action `json:"action"`
}

// Outcome tells a "resource exists" response apart from a "not found" one,
// so that an empty result is never confused with a failed request.
type Outcome int

const (
	Found Outcome = iota
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ListsResult is the answer to a lists query. Lists is empty when Outcome is
// NotFound.
type ListsResult struct {
	Outcome Outcome
	Lists   []MailingList
}

// IDs returns the set of list identifiers in the result.
func (r *ListsResult) IDs() map[string]struct{} {
	if r == nil {
		return map[string]struct{}{}
	}
	ids := make(map[string]struct{}, len(r.Lists))
	for _, l := range r.Lists {
		ids[l.ID] = struct{}{}
	}
	return ids
}
