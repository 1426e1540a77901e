package activation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"affiliate/kit/db"
)

func TestActivationSQLRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		affected    int64
		execErr     error
		want        bool
		expectedErr error
	}{
		{name: "moved", affected: 1, want: true},
		{name: "status changed underneath", affected: 0, want: false},
		{name: "exec error", execErr: db.ErrInternal, expectedErr: db.ErrInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := new(db.ClientMock)
			c.On("Exec", ctx, qActivationUpdateStatus, []any{"a1", string(StatusPending), string(StatusCompleted)}).Return(tt.affected, tt.execErr)

			got, err := NewSQLRepository(c, nil).UpdateStatus(ctx, "a1", StatusPending, StatusCompleted)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestActivationInMemoryRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()
	require.NoError(t, r.Create(ctx, &Activation{ID: "a1", ClientID: "c1", Status: StatusPending}))

	moved, err := r.UpdateStatus(ctx, "a1", StatusPending, StatusFailed)
	require.NoError(t, err)
	require.True(t, moved)

	moved, err = r.UpdateStatus(ctx, "a1", StatusPending, StatusCompleted)
	require.NoError(t, err)
	require.False(t, moved)

	moved, err = r.UpdateStatus(ctx, "missing", StatusPending, StatusFailed)
	require.NoError(t, err)
	require.False(t, moved)
}
