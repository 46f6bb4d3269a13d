package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the request date format
const DateLayout = "2006-01-02"

// ErrInvalidDate marks a request date that is not YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid date")

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of field errors usable as an error
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Validator validates request payloads
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance reporting json field names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	return &Validator{validate: v}
}

// Struct validates s against its validate tags
func (v *Validator) Struct(s interface{}) []ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "body", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   scalar(fe.Value()),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "datetime":
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// scalar keeps only simple values in error reports
func scalar(v interface{}) interface{} {
	switch v.(type) {
	case string, int, int64, bool:
		return v
	}
	return nil
}

// Window is an inclusive time range
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ParseDate parses a YYYY-MM-DD date in loc
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// ParseWindow resolves request dates into a window. startDate covers its whole
// day from 00:00:00, endDate up to 23:59:59. Missing bounds default to
// defaultStart and now.
func ParseWindow(startDate, endDate string, defaultStart, now time.Time) (Window, []ValidationError) {
	var errs []ValidationError
	w := Window{Start: defaultStart, End: now}

	if startDate != "" {
		t, err := ParseDate(startDate, now.Location())
		if err != nil {
			errs = append(errs, ValidationError{Field: "startDate", Message: "startDate must be a date in YYYY-MM-DD format", Value: startDate})
		} else {
			w.Start = t
		}
	}

	if endDate != "" {
		t, err := ParseDate(endDate, now.Location())
		if err != nil {
			errs = append(errs, ValidationError{Field: "endDate", Message: "endDate must be a date in YYYY-MM-DD format", Value: endDate})
		} else {
			w.End = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
		}
	}

	if len(errs) == 0 && w.Start.After(w.End) {
		errs = append(errs, ValidationError{Field: "startDate", Message: "startDate must not be after endDate", Value: startDate})
	}

	return w, errs
}

// ParsePage parses zero-based page and size query values
func ParsePage(page, size string) (int, int, []ValidationError) {
	var errs []ValidationError
	p, s := 0, models.DefaultPageSize

	if page != "" {
		v, err := strconv.Atoi(page)
		if err != nil || v < 0 || v > models.MaxPage {
			errs = append(errs, ValidationError{
				Field:   "page",
				Message: fmt.Sprintf("page must be between 0 and %d", models.MaxPage),
				Value:   page,
			})
		} else {
			p = v
		}
	}

	if size != "" {
		v, err := strconv.Atoi(size)
		if err != nil || v < 1 || v > models.MaxPageSize {
			errs = append(errs, ValidationError{
				Field:   "size",
				Message: fmt.Sprintf("size must be between 1 and %d", models.MaxPageSize),
				Value:   size,
			})
		} else {
			s = v
		}
	}

	return p, s, errs
}
