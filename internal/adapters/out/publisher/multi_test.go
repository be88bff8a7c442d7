package publisher_test

import (
	"context"
	"errors"
	"testing"

	"tracking/internal/adapters/out/publisher"
	"tracking/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event order.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestMulti_CallsEveryPublisher(t *testing.T) {
	ctx := context.Background()
	event := order.Event{Name: order.EventOrderConfirmed}

	first, second := new(MockPublisher), new(MockPublisher)
	errFirst := errors.New("hub queue full")
	first.On("Publish", ctx, event).Return(errFirst).Once()
	second.On("Publish", ctx, event).Return(nil).Once()

	err := publisher.Multi{first, nil, second}.Publish(ctx, event)

	require.ErrorIs(t, err, errFirst)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, publisher.Multi{}.Publish(context.Background(), order.Event{}))
}
