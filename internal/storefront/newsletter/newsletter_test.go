package newsletter

import (
	"context"
	"errors"
	"testing"

	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_Remote(t *testing.T) {
	var got []string
	remote := SubscriberFunc(func(_ context.Context, email string) error {
		got = append(got, email)
		return nil
	})
	n := New(storage.NewMemoryStore(), remote, nil, nil)

	local, err := n.Subscribe(context.Background(), " Fan@Example.com ")
	require.NoError(t, err)
	assert.False(t, local)
	assert.Equal(t, []string{"fan@example.com"}, got)

	pending, err := n.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubscribe_FallsBackToLocal(t *testing.T) {
	remote := SubscriberFunc(func(context.Context, string) error {
		return errors.New("connection refused")
	})
	rec := &notify.Recorder{}
	n := New(storage.NewMemoryStore(), remote, rec, nil)

	for i := 0; i < 2; i++ {
		local, err := n.Subscribe(context.Background(), "fan@example.com")
		require.NoError(t, err)
		assert.True(t, local)
	}

	pending, err := n.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "fan@example.com", pending[0].Email)

	last, _ := rec.Last()
	assert.Equal(t, notify.Success, last.Level)
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	called := false
	remote := SubscriberFunc(func(context.Context, string) error {
		called = true
		return nil
	})
	n := New(storage.NewMemoryStore(), remote, nil, nil)

	for _, email := range []string{"", "not-an-email", "fan@"} {
		_, err := n.Subscribe(context.Background(), email)
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
	assert.False(t, called)
}
