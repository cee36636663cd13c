package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginated(t *testing.T) {
	for _, tc := range []struct {
		total, limit, pages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
	} {
		r := Paginated([]int{}, tc.total, 1, tc.limit)
		require.NotNil(t, r.Pagination)
		assert.Equal(t, tc.pages, r.Pagination.Pages, tc)
		assert.Equal(t, tc.total, r.Pagination.Total)
	}
}

func TestValidationError(t *testing.T) {
	type input struct {
		StudentName string `validate:"required"`
		Age         int    `validate:"min=5,max=15"`
	}

	err := validator.New().Struct(input{Age: 20})

	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs))

	r := ValidationError(vErrs)
	assert.False(t, r.Success)
	assert.Equal(t, "Validation failed", r.Error)
	assert.Equal(t, []FieldError{
		{Field: "studentName", Message: "studentName is required"},
		{Field: "age", Message: "age must be at most 15"},
	}, r.Details)
}

func TestInternal(t *testing.T) {
	cause := errors.New("connection refused")

	for _, verbose := range []bool{true, false} {
		var got Response

		h := WithVerboseErrors(verbose)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = Internal(r, cause)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if verbose {
			assert.Equal(t, "connection refused", got.Error)
		} else {
			assert.Equal(t, "Internal error", got.Error)
		}
	}
}
