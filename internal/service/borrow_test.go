package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/librisapp/libris-server/internal/errors"
)

func TestBorrowService_BorrowAndReturn(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Loaned", "Mystery", 2)

	rec, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsOpen())

	after, err := e.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.AvailableCopies)

	returned, err := e.borrows.ReturnBook(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, returned.IsOpen())

	after, err = e.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.AvailableCopies)
}

func TestBorrowService_RejectsSecondOpenLoan(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Loaned", "Mystery", 3)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = e.borrows.BorrowBook(ctx, user.ID, book.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)

	// Nothing was persisted by the rejected attempt.
	after, err := e.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.AvailableCopies)
}

func TestBorrowService_ReborrowAfterReturn(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Loaned", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)
	_, err = e.borrows.ReturnBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = e.borrows.BorrowBook(ctx, user.ID, book.ID)
	assert.NoError(t, err)
}

func TestBorrowService_RejectsWhenNoCopies(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	alice := e.createUser(t, "alice@example.com")
	bob := e.createUser(t, "bob@example.com")
	book := e.createBook(t, "Scarce", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	_, err = e.borrows.BorrowBook(ctx, bob.ID, book.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)
}

func TestBorrowService_ReturnWithoutOpenLoan(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Never Taken", "Mystery", 1)

	_, err := e.borrows.ReturnBook(ctx, user.ID, book.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBorrowService_BorrowUpdatesPreferences(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	book := e.createBook(t, "Vectored", "Mystery", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, book.ID)
	require.NoError(t, err)

	vec, err := e.store.GetPreferenceVector(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, vec.Entries, 1)
	assert.Equal(t, "mystery", vec.Entries[0].Token)
}

func TestBorrowService_ListUserBorrows(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	user := e.createUser(t, "reader@example.com")
	b1 := e.createBook(t, "First", "Mystery", 1)
	b2 := e.createBook(t, "Second", "Sci-Fi", 1)

	_, err := e.borrows.BorrowBook(ctx, user.ID, b1.ID)
	require.NoError(t, err)
	_, err = e.borrows.BorrowBook(ctx, user.ID, b2.ID)
	require.NoError(t, err)

	records, err := e.borrows.ListUserBorrows(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
