package subscription

import (
	"context"

	"github.com/ignite/list-subscriptions/internal/domain"
)

// API defines the remote mailing-list operations the service needs.
// *mailchimp.Client satisfies it.
type API interface {
	// GetLists returns every list, in the platform's order.
	GetLists(ctx context.Context) (*domain.ListsResult, error)

	// GetListsByEmail returns the lists the address is subscribed to.
	GetListsByEmail(ctx context.Context, email string) (*domain.ListsResult, error)

	// UpdateMemberStatus changes an existing member's status. An unknown
	// member yields domain.NotFound and a nil error.
	UpdateMemberStatus(ctx context.Context, listID, email string, status domain.MemberStatus) (domain.Outcome, error)

	// CreateMember adds a new member with the given status.
	CreateMember(ctx context.Context, listID, email string, status domain.MemberStatus) error
}
