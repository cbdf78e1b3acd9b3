package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByOrder(ctx context.Context, orderID uint) (*Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Shipment), args.Error(1)
}

func (m *MockRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	args := m.Called(ctx, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Shipment), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Shipment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Shipment), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uint, status Status) (*Shipment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Shipment), args.Error(1)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("delivered")
	assert.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("BackwardsTransitionAccepted", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UpdateStatus", ctx, uint(2), StatusPending).
			Return(&Shipment{ID: 2, Status: StatusPending}, nil)

		sh, err := NewService(repo).UpdateStatus(ctx, 2, StatusPending)
		assert.NoError(t, err)
		assert.Equal(t, StatusPending, sh.Status)
		repo.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		repo := new(MockRepository)
		_, err := NewService(repo).UpdateStatus(ctx, 2, Status("Lost"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_List_Empty(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("List", ctx, ListFilter{}).Return(nil, nil)

	shipments, err := NewService(repo).List(ctx, ListFilter{})
	assert.NoError(t, err)
	assert.NotNil(t, shipments)
}
