package response

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Success    bool         `json:"success"`
	Data       any          `json:"data,omitempty"`
	Error      string       `json:"error,omitempty"`
	Message    string       `json:"message,omitempty"`
	Details    []FieldError `json:"details,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

func OK(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

func Message(msg string) Response {
	return Response{
		Success: true,
		Message: msg,
	}
}

func (r Response) WithMessage(msg string) Response {
	r.Message = msg
	return r
}

func Paginated(data any, total, page, limit int) Response {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return Response{
		Success: true,
		Data:    data,
		Pagination: &Pagination{
			Total: total,
			Page:  page,
			Pages: pages,
		},
	}
}

func Error(msg string) Response {
	return Response{
		Success: false,
		Error:   msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	details := make([]FieldError, 0, len(errs))

	for _, err := range errs {
		details = append(details, FieldError{
			Field:   lowerFirst(err.Field()),
			Message: fieldMessage(err),
		})
	}

	return Response{
		Success: false,
		Error:   "Validation failed",
		Details: details,
	}
}

func fieldMessage(err validator.FieldError) string {
	field := lowerFirst(err.Field())

	switch err.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, err.Param())
	case "username":
		return fmt.Sprintf("%s must be 3-50 characters of letters, numbers and underscores", field)
	case "password":
		return fmt.Sprintf("%s must be at least 8 characters with an uppercase letter, a lowercase letter and a number", field)
	default:
		return fmt.Sprintf("%s is not valid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

type verboseKey struct{}

// WithVerboseErrors controls whether Internal exposes the underlying error.
func WithVerboseErrors(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), verboseKey{}, verbose)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Internal(r *http.Request, err error) Response {
	if verbose, _ := r.Context().Value(verboseKey{}).(bool); verbose && err != nil {
		return Error(err.Error())
	}

	return Error("Internal error")
}
