package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
)

type SubscriberService struct {
	subscribers repository.SubscriberRepository
	outbox      repository.OutboxRepository
	validate    *validator.Validate
	log         *slog.Logger
}

func NewSubscriberService(subscribers repository.SubscriberRepository, outbox repository.OutboxRepository, log *slog.Logger) *SubscriberService {
	return &SubscriberService{
		subscribers: subscribers,
		outbox:      outbox,
		validate:    validator.New(),
		log:         log.With("component", "subscriber_service"),
	}
}

// Subscribe stores the address. The bool result is false when the address
// was already subscribed.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	sub := &domain.Subscriber{Email: email, CreatedAt: time.Now().UTC()}
	if err := s.subscribers.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubscriber) {
			return false, nil
		}
		return false, err
	}

	payload, _ := json.Marshal(sub)
	event := &domain.OutboxEvent{
		AggregateID: email,
		EventType:   domain.EventSubscriberCreated,
		Payload:     payload,
		CreatedAt:   sub.CreatedAt,
	}
	if err := s.outbox.Add(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "failed to add outbox event", "error", err, "email", email)
	}
	return true, nil
}
