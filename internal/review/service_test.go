package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Review), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		repo := new(MockRepository)
		_, err := NewService(repo).Create(ctx, CreateReviewInput{ProductID: 1, UserID: 1, Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}

	repo := new(MockRepository)
	repo.On("Create", ctx, mock.MatchedBy(func(r *Review) bool { return r.Text == "Nice" })).Return(nil)
	rv, err := NewService(repo).Create(ctx, CreateReviewInput{ProductID: 1, UserID: 1, Rating: 3, Text: "  Nice "})
	require.NoError(t, err)
	assert.Equal(t, "★★★☆☆", rv.Stars())

	dup := new(MockRepository)
	dup.On("Create", ctx, mock.Anything).Return(ErrAlreadyReviewed)
	_, err = NewService(dup).Create(ctx, CreateReviewInput{ProductID: 1, UserID: 1, Rating: 5})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	bad := 9
	_, err := NewService(new(MockRepository)).List(ctx, ListFilter{MinRating: &bad})
	assert.ErrorIs(t, err, ErrInvalidRating)

	repo := new(MockRepository)
	repo.On("List", ctx, ListFilter{}).Return(nil, nil)
	reviews, err := NewService(repo).List(ctx, ListFilter{})
	assert.NoError(t, err)
	assert.NotNil(t, reviews)
}
