package mailchimp

import "github.com/ignite/list-subscriptions/internal/domain"

// ListsResponse is the body of GET /lists/.
type ListsResponse struct {
	Lists      []List `json:"lists"`
	TotalItems int    `json:"total_items"`
}

// List is one entry of ListsResponse. Only the fields the gateway uses are
// decoded.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MemberRequest is the body of POST /lists/{id}/members.
type MemberRequest struct {
	EmailAddress string              `json:"email_address"`
	Status       domain.MemberStatus `json:"status"`
}

// StatusRequest is the body of PATCH /lists/{id}/members/{hash}.
type StatusRequest struct {
	Status domain.MemberStatus `json:"status"`
}

// MemberResponse is the member resource returned by create and update.
type MemberResponse struct {
	ID            string              `json:"id"`
	EmailAddress  string              `json:"email_address"`
	UniqueEmailID string              `json:"unique_email_id"`
	Status        domain.MemberStatus `json:"status"`
	ListID        string              `json:"list_id"`
}

// Problem is the problem-JSON error document returned for failed requests.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	HealthStatus string `json:"health_status"`
}

func (r *ListsResponse) toDomain() []domain.MailingList {
	lists := make([]domain.MailingList, 0, len(r.Lists))
	for _, l := range r.Lists {
		lists = append(lists, domain.MailingList{ID: l.ID, Name: l.Name})
	}
	return lists
}
