// Package account keeps storefront users in the local profile. Passwords are
// stored as bcrypt hashes.
package account

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/retisha256/ecommerce/internal/storefront/cart"
	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters long")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingEmail       = errors.New("email is required")
)

// User is the public part of an account, stored under the current user key.
type User struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

type record struct {
	User
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SignupForm struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

type Option func(*Accounts)

func WithNotifier(n notify.Notifier) Option {
	return func(a *Accounts) { a.notifier = n }
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Accounts) { a.log = log }
}

// WithCart lets Logout empty the live cart instead of only its stored copy.
func WithCart(c *cart.Manager) Option {
	return func(a *Accounts) { a.cart = c }
}

// WithCost sets the bcrypt cost.
func WithCost(cost int) Option {
	return func(a *Accounts) { a.cost = cost }
}

type Accounts struct {
	store    storage.Store
	cart     *cart.Manager
	notifier notify.Notifier
	log      *slog.Logger
	cost     int
	now      func() time.Time

	mu sync.Mutex
}

func New(store storage.Store, opts ...Option) *Accounts {
	a := &Accounts{
		store:    store,
		notifier: notify.Nop{},
		log:      slog.Default(),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("component", "account")
	return a
}

// Signup registers a new user and signs them in.
func (a *Accounts) Signup(f SignupForm) (*User, error) {
	if f.Password != f.ConfirmPassword {
		a.notifier.Notify(notify.Error, "Passwords do not match. Please try again.")
		return nil, ErrPasswordMismatch
	}
	if len(f.Password) < minPasswordLength {
		a.notifier.Notify(notify.Error, "Password must be at least 6 characters long.")
		return nil, ErrPasswordTooShort
	}
	email := normalizeEmail(f.Email)
	if email == "" {
		a.notifier.Notify(notify.Error, "Account creation failed. Please try again.")
		return nil, ErrMissingEmail
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.loadUsers()
	if err != nil {
		return nil, a.failSignup(err)
	}
	for _, u := range users {
		if u.Email == email {
			a.notifier.Notify(notify.Error, "Account creation failed. Please try again.")
			return nil, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), a.cost)
	if err != nil {
		return nil, a.failSignup(fmt.Errorf("hash password: %w", err))
	}

	now := a.now()
	rec := record{
		User: User{
			ID:        strconv.FormatInt(now.UnixMilli(), 10),
			FirstName: strings.TrimSpace(f.FirstName),
			LastName:  strings.TrimSpace(f.LastName),
			Email:     email,
			Phone:     strings.TrimSpace(f.Phone),
		},
		PasswordHash: string(hash),
		CreatedAt:    now.UTC(),
	}
	users = append(users, rec)
	if err := storage.SaveJSON(a.store, storage.KeyUsers, users); err != nil {
		return nil, a.failSignup(err)
	}

	user := rec.User
	user.IsLoggedIn = true
	if err := storage.SaveJSON(a.store, storage.KeyCurrentUser, user); err != nil {
		return nil, a.failSignup(err)
	}
	a.notifier.Notify(notify.Success, "Account created successfully! Redirecting to login...")
	return &user, nil
}

func (a *Accounts) failSignup(err error) error {
	a.log.Error("signup failed", "error", err)
	a.notifier.Notify(notify.Error, "Account creation failed. Please try again.")
	return err
}

func (a *Accounts) Login(email, password string) (*User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.loadUsers()
	if err != nil {
		a.log.Error("login failed", "error", err)
		a.notifier.Notify(notify.Error, "Login failed. Please try again.")
		return nil, err
	}

	email = normalizeEmail(email)
	for _, u := range users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		user := u.User
		user.IsLoggedIn = true
		if err := storage.SaveJSON(a.store, storage.KeyCurrentUser, user); err != nil {
			a.log.Error("login failed", "error", err)
			a.notifier.Notify(notify.Error, "Login failed. Please try again.")
			return nil, err
		}
		a.notifier.Notify(notify.Success, "Login successful! Welcome back.")
		return &user, nil
	}

	a.notifier.Notify(notify.Error, "Invalid email or password. Please try again.")
	return nil, ErrInvalidCredentials
}

// Logout forgets the current user and empties the cart.
func (a *Accounts) Logout() error {
	if err := a.store.Remove(storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if a.cart != nil {
		a.cart.Clear()
	}
	if err := a.store.Remove(storage.KeyCart); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.notifier.Notify(notify.Success, "You have been logged out successfully. Your cart has been cleared.")
	return nil
}

// Current returns the signed-in user, or nil.
func (a *Accounts) Current() (*User, error) {
	var u User
	ok, err := storage.LoadJSON(a.store, storage.KeyCurrentUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (a *Accounts) loadUsers() ([]record, error) {
	var users []record
	if _, err := storage.LoadJSON(a.store, storage.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
