package forms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrRequired         = errors.New("is required")
	ErrInvalidSchedule  = errors.New("is not a valid cron expression")
	ErrInvalidType      = errors.New("must be one of shell, python, nodejs")
	ErrNegative         = errors.New("must not be negative")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// FieldError ties a validation failure to the input that caused it
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Err: ErrRequired}
	}
	return nil
}

// ParseSchedule accepts the five field cron syntax and descriptors like @hourly
func ParseSchedule(schedule string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(strings.TrimSpace(schedule))
	if err != nil {
		return nil, &FieldError{Field: "schedule", Err: fmt.Errorf("%w: %v", ErrInvalidSchedule, err)}
	}
	return sched, nil
}

// NextRuns lists the next n times schedule fires after from
func NextRuns(schedule string, from time.Time, n int) ([]time.Time, error) {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	ret := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// join keeps every failed check, nil when all passed
func join(errs ...error) error {
	return errors.Join(errs...)
}
