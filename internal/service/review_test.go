package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
)

func TestReviewService_CreateReview(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Reviewed", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	review, err := e.reviews.CreateReview(ctx, user.ID, book.ID, 4, "  tight plotting  ")
	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "tight plotting", review.Text)

	keys := e.scheduler.scheduled()
	require.Len(t, keys, 1)
	assert.Equal(t, domain.EnrichReviewSentiment, keys[0].Kind)
	assert.Equal(t, review.ID, keys[0].EntityID)
}

func TestReviewService_RequiresPriorBorrow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Unread", "Mystery", 1)

	_, err := e.reviews.CreateReview(ctx, user.ID, book.ID, 5, "never opened it")
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)
}

func TestReviewService_ReturnedBorrowStillCounts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Read Once", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)
	_, err = e.borrows.ReturnBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = e.reviews.CreateReview(ctx, user.ID, book.ID, 3, "fine")
	assert.NoError(t, err)
}

func TestReviewService_OneReviewPerPair(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Once Only", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = e.reviews.CreateReview(ctx, user.ID, book.ID, 5, "great")
	require.NoError(t, err)

	_, err = e.reviews.CreateReview(ctx, user.ID, book.ID, 1, "changed my mind")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestReviewService_RejectsInvalidRating(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Rated", "Mystery", 1)

	for _, rating := range []int{0, 6, -1} {
		_, err := e.reviews.CreateReview(ctx, user.ID, book.ID, rating, "x")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestReviewService_EmptyTextSkipsSentiment(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Silent", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = e.reviews.CreateReview(ctx, user.ID, book.ID, 4, "   ")
	require.NoError(t, err)
	assert.Empty(t, e.scheduler.scheduled())
}

func TestReviewService_DeleteReview_AuthorOnly(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	alice := e.createUser(t, "alice@example.com")
	bob := e.createUser(t, "bob@example.com")
	book := e.createBook(t, "Contested", "Mystery", 2)

	_, err := e.borrows.BorrowBook(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	review, err := e.reviews.CreateReview(ctx, alice.ID, book.ID, 5, "mine")
	require.NoError(t, err)

	err = e.reviews.DeleteReview(ctx, bob.ID, review.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = e.reviews.DeleteReview(ctx, alice.ID, review.ID)
	assert.NoError(t, err)
}
