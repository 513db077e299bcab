package forms

import (
	"strings"

	"github.com/amidaware/schedctl/shared"
)

func DefaultScript() shared.Script {
	return shared.Script{Type: shared.ScriptShell}
}

// ScriptForm backs both the create and the edit dialog. Err holds the
// message shown inline after a failed submit.
type ScriptForm struct {
	Values shared.Script
	Err    string

	editing bool
}

func NewScriptForm(initial *shared.Script) *ScriptForm {
	if initial != nil {
		return &ScriptForm{Values: *initial, editing: true}
	}
	return &ScriptForm{Values: DefaultScript()}
}

func (f *ScriptForm) Editing() bool {
	return f.editing
}

func (f *ScriptForm) Title() string {
	if f.editing {
		return "Edit Script"
	}
	return "Add New Script"
}

func (f *ScriptForm) SubmitLabel(loading bool) string {
	if loading {
		return "Creating..."
	}
	return "Create Script"
}

func (f *ScriptForm) Placeholder() string {
	switch f.Values.Type {
	case shared.ScriptPython:
		return `print("Hello World")`
	case shared.ScriptNodeJS:
		return `console.log("Hello World")`
	}
	return "#!/bin/bash\necho \"Hello World\""
}

func (f *ScriptForm) Validate() error {
	errs := []error{
		required("name", f.Values.Name),
		required("content", f.Values.Content),
	}
	if !f.Values.Type.Valid() {
		errs = append(errs, &FieldError{Field: "type", Err: ErrInvalidType})
	}
	if strings.TrimSpace(f.Values.Schedule) != "" {
		if _, err := ParseSchedule(f.Values.Schedule); err != nil {
			errs = append(errs, err)
		}
	}
	return join(errs...)
}

// Submit hands the values to save. On success the form goes back to its
// defaults, on failure the input is kept and the error shown inline.
func (f *ScriptForm) Submit(save func(shared.Script) error) error {
	f.Err = ""
	if err := f.Validate(); err != nil {
		f.Err = err.Error()
		return err
	}

	values := f.Values
	values.Name = strings.TrimSpace(values.Name)
	values.Schedule = strings.TrimSpace(values.Schedule)
	if err := save(values); err != nil {
		f.Err = err.Error()
		return err
	}
	f.Reset()
	return nil
}

func (f *ScriptForm) Reset() {
	f.Values = DefaultScript()
	f.Err = ""
}
