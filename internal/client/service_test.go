package client

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"affiliate/internal/events"
	"affiliate/kit/db"
	"affiliate/kit/errs"
)

func TestClientService_Register(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		req         NewClient
		service     func() (*Service, *PublisherMock)
		expectedErr error
	}{
		{
			name: "missing username",
			req:  NewClient{PhoneNumber: "0712345678"},
			service: func() (*Service, *PublisherMock) {
				return NewService(nil, new(RepositoryMock), nil), nil
			},
			expectedErr: db.ErrInvalid,
		},
		{
			name: "unknown inviter",
			req:  NewClient{Username: "jane", PhoneNumber: "0712345678", InviterID: "missing"},
			service: func() (*Service, *PublisherMock) {
				repo := new(RepositoryMock)
				repo.On("Get", ctx, "missing").Return(nil, db.ErrNotFound)
				return NewService(nil, repo, nil), nil
			},
			expectedErr: errs.ErrAccountNotFound,
		},
		{
			name: "duplicate username",
			req:  NewClient{Username: "jane", PhoneNumber: "0712345678"},
			service: func() (*Service, *PublisherMock) {
				repo := new(RepositoryMock)
				repo.On("Create", ctx, mock.Anything).Return(db.ErrConflict)
				return NewService(nil, repo, nil), nil
			},
			expectedErr: db.ErrConflict,
		},
		{
			name: "success publishes registration",
			req:  NewClient{Username: " jane ", PhoneNumber: "0712345678", InviterID: "inviter"},
			service: func() (*Service, *PublisherMock) {
				repo := new(RepositoryMock)
				repo.On("Get", ctx, "inviter").Return(&Client{ID: "inviter"}, nil)
				repo.On("Create", ctx, mock.MatchedBy(func(c *Client) bool {
					return c.Username == "jane" && c.Status == StatusInactive && c.Balance.IsZero() && c.ID != ""
				})).Return(nil)
				bus := new(PublisherMock)
				bus.On("Publish", ctx, mock.MatchedBy(func(e events.ClientRegistered) bool {
					return e.Username == "jane" && e.InviterID == "inviter"
				})).Return([]error{errors.New("subscriber down")})
				return NewService(bus, repo, nil), bus
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, bus := tt.service()
			c, err := svc.Register(ctx, tt.req)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "inviter", c.InviterID)
			bus.AssertExpectations(t)
		})
	}
}

func TestClientService_Balance(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, NewInMemoryRepository(), nil)

	c, err := svc.Register(ctx, NewClient{Username: "jane", PhoneNumber: "0712345678"})
	require.NoError(t, err)

	require.NoError(t, svc.IncrementBalance(ctx, c.ID, decimal.NewFromInt(300)))
	require.ErrorIs(t, svc.DecrementBalance(ctx, c.ID, decimal.NewFromInt(301)), errs.ErrInsufficientBalance)
	require.NoError(t, svc.DecrementBalance(ctx, c.ID, decimal.NewFromInt(300)))
	require.ErrorIs(t, svc.IncrementBalance(ctx, c.ID, decimal.Zero), db.ErrInvalid)
	require.ErrorIs(t, svc.IncrementBalance(ctx, "missing", decimal.NewFromInt(1)), errs.ErrAccountNotFound)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())
}

func TestClientService_Referrals(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, NewInMemoryRepository(), nil)

	inviter, err := svc.Register(ctx, NewClient{Username: "inviter", PhoneNumber: "0700000000"})
	require.NoError(t, err)
	a, err := svc.Register(ctx, NewClient{Username: "a", PhoneNumber: "0700000001", InviterID: inviter.ID})
	require.NoError(t, err)
	_, err = svc.Register(ctx, NewClient{Username: "b", PhoneNumber: "0700000002", InviterID: inviter.ID})
	require.NoError(t, err)
	activated, err := svc.Activate(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, activated)

	total, err := svc.ReferralCount(ctx, inviter.ID, "")
	require.NoError(t, err)
	require.Equal(t, 2, total)

	active, err := svc.Invitees(ctx, inviter.ID, StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "a", active[0].Username)

	got, err := svc.GetInviter(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, inviter.ID, got.ID)

	none, err := svc.GetInviter(ctx, inviter.ID)
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = svc.Activate(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestClientService_ReferralCountFault(t *testing.T) {
	ctx := context.Background()
	repo := new(RepositoryMock)
	repo.On("CountInvitees", ctx, "id", StatusActive).Return(0, db.ErrInternal)

	_, err := NewService(nil, repo, nil).ReferralCount(ctx, "id", StatusActive)
	require.ErrorIs(t, err, db.ErrInternal)
	require.False(t, errs.IsBusiness(err))
}

func TestClientService_ActivateOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, NewInMemoryRepository(), nil)

	c, err := svc.Register(ctx, NewClient{Username: "once", PhoneNumber: "0700000003"})
	require.NoError(t, err)

	first, err := svc.Activate(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, first)

	second, err := svc.Activate(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, second)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.IsActive())
}
