package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/list-subscriptions/internal/domain"
	"github.com/ignite/list-subscriptions/internal/pkg/logger"
)

// Service implements subscription business logic. It is safe for concurrent use.
type Service struct {
	api API
}

// NewService creates a subscription service backed by the given API.
func NewService(api API) *Service {
	return &Service{api: api}
}

// ListStatuses returns every list with the action available to email.
// Order follows the unfiltered lists response.
func (s *Service) ListStatuses(ctx context.Context, email string) ([]domain.SubscriptionView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	all, err := s.api.GetLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing mailing lists: %w", err)
	}
	mine, err := s.api.GetListsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}

	member := mine.IDs()
	views := make([]domain.SubscriptionView, 0, len(all.Lists))
	for _, l := range all.Lists {
		_, isMember := member[l.ID]
		views = append(views, domain.SubscriptionView{
			MailingList: l,
			Action:      domain.ActionFor(isMember),
		})
	}

	logger.Debug("subscription: statuses resolved", "email", email,
		"lists", len(views), "memberships", len(member),
		"lists_outcome", all.Outcome, "memberships_outcome", mine.Outcome)
	return views, nil
}

// Subscribe marks email as subscribed to listID, creating the member if the
// platform does not know it yet. Subscribing an existing subscriber is a
// no-op.
func (s *Service) Subscribe(ctx context.Context, email, listID string) error {
	email, listID, err := validate(email, listID)
	if err != nil {
		return err
	}

	outcome, err := s.api.UpdateMemberStatus(ctx, listID, email, domain.MemberSubscribed)
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	switch outcome {
	case domain.Found:
		logger.Info("subscription: member subscribed", "email", email, "list_id", listID)
		return nil
	case domain.NotFound:
		err := s.api.CreateMember(ctx, listID, email, domain.MemberSubscribed)
		if errors.Is(err, domain.ErrMemberExists) {
			// Another create landed between our update and create.
			return s.resubscribe(ctx, email, listID, err)
		}
		if err != nil {
			return fmt.Errorf("subscribing new member: %w", err)
		}
		logger.Info("subscription: member created", "email", email, "list_id", listID)
		return nil
	default:
		return fmt.Errorf("subscribing: unexpected outcome %s", outcome)
	}
}

// resubscribe repeats the status update once after a create conflict.
func (s *Service) resubscribe(ctx context.Context, email, listID string, createErr error) error {
	outcome, err := s.api.UpdateMemberStatus(ctx, listID, email, domain.MemberSubscribed)
	if err != nil {
		return fmt.Errorf("subscribing existing member: %w", err)
	}
	if outcome != domain.Found {
		return fmt.Errorf("subscribing new member: %w", createErr)
	}
	logger.Info("subscription: member subscribed after create conflict", "email", email, "list_id", listID)
	return nil
}

// Unsubscribe marks email as unsubscribed from listID. An address that is
// not a member is left alone and no error is returned.
func (s *Service) Unsubscribe(ctx context.Context, email, listID string) error {
	email, listID, err := validate(email, listID)
	if err != nil {
		return err
	}

	outcome, err := s.api.UpdateMemberStatus(ctx, listID, email, domain.MemberUnsubscribed)
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}

	switch outcome {
	case domain.Found:
		logger.Info("subscription: member unsubscribed", "email", email, "list_id", listID)
	case domain.NotFound:
		logger.Debug("subscription: unsubscribe of non-member ignored", "email", email, "list_id", listID)
	default:
		return fmt.Errorf("unsubscribing: unexpected outcome %s", outcome)
	}
	return nil
}

func validate(email, listID string) (string, string, error) {
	email = strings.TrimSpace(email)
	listID = strings.TrimSpace(listID)
	if email == "" {
		return "", "", ErrEmailRequired
	}
	if listID == "" {
		return "", "", ErrListIDRequired
	}
	return email, listID, nil
}
