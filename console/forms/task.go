package forms

import (
	"strings"

	"github.com/amidaware/schedctl/shared"
)

// TaskForm is the legacy manual task form, not linked to a script
type TaskForm struct {
	Values shared.ManualTask
	Err    string
}

func NewTaskForm() *TaskForm {
	return &TaskForm{}
}

func (f *TaskForm) Validate() error {
	errs := []error{
		required("name", f.Values.Name),
		required("command", f.Values.Command),
		required("schedule", f.Values.Schedule),
	}
	if strings.TrimSpace(f.Values.Schedule) != "" {
		if _, err := ParseSchedule(f.Values.Schedule); err != nil {
			errs = append(errs, err)
		}
	}
	if f.Values.Timeout < 0 {
		errs = append(errs, &FieldError{Field: "timeout", Err: ErrNegative})
	}
	return join(errs...)
}

func (f *TaskForm) Submit(save func(shared.ManualTask) error) error {
	f.Err = ""
	if err := f.Validate(); err != nil {
		f.Err = err.Error()
		return err
	}
	if err := save(f.Values); err != nil {
		f.Err = err.Error()
		return err
	}
	f.Values = shared.ManualTask{}
	return nil
}
