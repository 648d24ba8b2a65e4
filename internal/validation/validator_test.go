package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/librisapp/libris-server/internal/errors"
)

type sampleRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Title  string `json:"title" validate:"required,max=10"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

func TestValidate_Passes(t *testing.T) {
	v := New()
	err := v.Validate(sampleRequest{Email: "a@example.com", Title: "ok", Rating: 3})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	v := New()
	err := v.Validate(sampleRequest{Email: "not-an-email", Rating: 9})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)

	fields, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "must be less than or equal to 5", fields["rating"])
}

func TestValidate_UsesJSONTagNames(t *testing.T) {
	v := New()
	err := v.Validate(sampleRequest{Email: "a@example.com", Title: "this title is far too long", Rating: 3})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	fields := appErr.Details.(map[string]string)
	assert.Contains(t, fields, "title")
	assert.NotContains(t, fields, "Title")
}
