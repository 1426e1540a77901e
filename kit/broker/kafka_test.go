package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *writerMock) Close() error {
	return m.Called().Error(0)
}

func TestKafkaRelay_Handle(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		writeErr    error
		expectedErr error
	}{
		{name: "success"},
		{name: "write error", writeErr: kafka.LeaderNotAvailable, expectedErr: kafka.LeaderNotAvailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := new(writerMock)
			var sent []kafka.Message
			w.On("WriteMessages", ctx, mock.Anything).Run(func(args mock.Arguments) {
				sent = args.Get(1).([]kafka.Message)
			}).Return(tt.writeErr)

			err := NewKafkaRelay(w, nil).Handle(ctx, testEvent{Ref: "ABC123"})
			if tt.expectedErr != nil {
				require.True(t, errors.Is(err, tt.expectedErr))
				return
			}
			require.NoError(t, err)
			require.Len(t, sent, 1)
			require.Equal(t, "ABC123", string(sent[0].Key))
			require.Equal(t, "test.event", string(sent[0].Headers[0].Value))

			var decoded testEvent
			require.NoError(t, json.Unmarshal(sent[0].Value, &decoded))
			require.Equal(t, "ABC123", decoded.Ref)
		})
	}
}

func TestKafkaRelay_Attach(t *testing.T) {
	ctx := context.Background()
	w := new(writerMock)
	w.On("WriteMessages", ctx, mock.Anything).Return(nil)

	b := New(nil)
	NewKafkaRelay(w, nil).Attach(b, "test.event")

	require.Empty(t, b.Publish(ctx, testEvent{Ref: "A"}))
	require.Empty(t, b.Publish(ctx, otherEvent{}))
	w.AssertNumberOfCalls(t, "WriteMessages", 1)
}

func TestEncode_Unkeyed(t *testing.T) {
	msg, err := Encode(otherEvent{})
	require.NoError(t, err)
	require.Nil(t, msg.Key)
	require.Equal(t, "{}", string(msg.Value))
}
