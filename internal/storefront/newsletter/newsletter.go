// Package newsletter signs visitors up for the shop's mailing list.
package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
)

var ErrInvalidEmail = errors.New("invalid email address")

type Subscriber interface {
	Subscribe(ctx context.Context, email string) error
}

// SubscriberFunc adapts a plain function, such as a closure over the API
// client, to Subscriber.
type SubscriberFunc func(ctx context.Context, email string) error

func (f SubscriberFunc) Subscribe(ctx context.Context, email string) error { return f(ctx, email) }

// Entry is a subscription kept locally because the server was unreachable.
type Entry struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

type Newsletter struct {
	store    storage.Store
	remote   Subscriber
	notifier notify.Notifier
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func New(store storage.Store, remote Subscriber, notifier notify.Notifier, log *slog.Logger) *Newsletter {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Newsletter{
		store:    store,
		remote:   remote,
		notifier: notifier,
		log:      log.With("component", "newsletter"),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Subscribe registers email with the server, or stores it locally when the
// server cannot be reached. The second return value reports the local case.
func (n *Newsletter) Subscribe(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := n.validate.Var(email, "required,email"); err != nil {
		n.notifier.Notify(notify.Error, "Please enter a valid email address")
		return false, ErrInvalidEmail
	}

	if n.remote != nil {
		err := n.remote.Subscribe(ctx, email)
		if err == nil {
			n.notifier.Notify(notify.Success, "Thank you for subscribing!")
			return false, nil
		}
		n.log.WarnContext(ctx, "subscribe request failed, saving locally", "error", err)
	}

	if err := n.saveLocal(email); err != nil {
		n.log.ErrorContext(ctx, "failed to save subscriber locally", "error", err)
		n.notifier.Notify(notify.Error, "Subscription failed. Please try again.")
		return false, err
	}
	n.notifier.Notify(notify.Success, "Thank you for subscribing!")
	return true, nil
}

// Pending lists the locally stored subscriptions.
func (n *Newsletter) Pending() ([]Entry, error) {
	var entries []Entry
	if _, err := storage.LoadJSON(n.store, storage.KeySubscribers, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (n *Newsletter) saveLocal(email string) error {
	entries, err := n.Pending()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Email == email {
			return nil
		}
	}
	entries = append(entries, Entry{Email: email, SubscribedAt: n.now().UTC()})
	return storage.SaveJSON(n.store, storage.KeySubscribers, entries)
}
