package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/amidaware/schedctl/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptFormValidate(t *testing.T) {
	testTable := []struct {
		name        string
		values      shared.Script
		expectedErr error
	}{
		{
			name:   "Manual Only",
			values: shared.Script{Name: "hello", Content: "echo hi", Type: shared.ScriptShell},
		},
		{
			name:   "Cron Schedule",
			values: shared.Script{Name: "hello", Content: "echo hi", Type: shared.ScriptShell, Schedule: "*/5 * * * *"},
		},
		{
			name:   "Descriptor Schedule",
			values: shared.Script{Name: "hello", Content: "print(1)", Type: shared.ScriptPython, Schedule: "@hourly"},
		},
		{
			name:        "Missing Name",
			values:      shared.Script{Content: "echo hi", Type: shared.ScriptShell},
			expectedErr: ErrRequired,
		},
		{
			name:        "Blank Content",
			values:      shared.Script{Name: "hello", Content: "   ", Type: shared.ScriptShell},
			expectedErr: ErrRequired,
		},
		{
			name:        "Bad Type",
			values:      shared.Script{Name: "hello", Content: "echo hi", Type: "ruby"},
			expectedErr: ErrInvalidType,
		},
		{
			name:        "Bad Schedule",
			values:      shared.Script{Name: "hello", Content: "echo hi", Type: shared.ScriptShell, Schedule: "every minute"},
			expectedErr: ErrInvalidSchedule,
		},
		{
			name:        "Seconds Field Rejected",
			values:      shared.Script{Name: "hello", Content: "echo hi", Type: shared.ScriptShell, Schedule: "0 */5 * * * *"},
			expectedErr: ErrInvalidSchedule,
		},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			f := &ScriptForm{Values: tt.values}
			err := f.Validate()
			if tt.expectedErr == nil {
				if err != nil {
					t.Errorf("expected no error, got (%v)", err)
				}
				return
			}
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected (%v), got (%v)", tt.expectedErr, err)
			}
		})
	}
}

func TestScriptFormSubmit(t *testing.T) {
	input := shared.Script{Name: " backup ", Content: "tar czf /tmp/b.tgz /etc", Type: shared.ScriptShell, Schedule: "0 3 * * *"}

	t.Run("Failure Keeps Input", func(t *testing.T) {
		f := NewScriptForm(nil)
		f.Values = input

		err := f.Submit(func(shared.Script) error { return errors.New("script name already exists") })
		require.Error(t, err)
		assert.Equal(t, "script name already exists", f.Err)
		assert.Equal(t, input, f.Values)
	})

	t.Run("Success Resets", func(t *testing.T) {
		f := NewScriptForm(nil)
		f.Values = input
		f.Err = "old error"

		var saved shared.Script
		err := f.Submit(func(s shared.Script) error {
			assert.Equal(t, "", f.Err)
			saved = s
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "backup", saved.Name)
		assert.Equal(t, DefaultScript(), f.Values)
		assert.Equal(t, "", f.Err)
	})

	t.Run("Invalid Never Saves", func(t *testing.T) {
		f := NewScriptForm(nil)
		called := false
		err := f.Submit(func(shared.Script) error { called = true; return nil })
		assert.True(t, errors.Is(err, ErrRequired))
		assert.False(t, called)
		assert.NotEmpty(t, f.Err)
	})
}

func TestScriptFormLabels(t *testing.T) {
	create := NewScriptForm(nil)
	assert.Equal(t, "Add New Script", create.Title())
	assert.Equal(t, shared.ScriptShell, create.Values.Type)
	assert.Equal(t, "Create Script", create.SubmitLabel(false))
	assert.Equal(t, "Creating...", create.SubmitLabel(true))
	assert.Equal(t, "#!/bin/bash\necho \"Hello World\"", create.Placeholder())

	edit := NewScriptForm(&shared.Script{ID: 4, Name: "x", Type: shared.ScriptNodeJS})
	assert.True(t, edit.Editing())
	assert.Equal(t, "Edit Script", edit.Title())
	assert.Equal(t, `console.log("Hello World")`, edit.Placeholder())
}

func TestTaskForm(t *testing.T) {
	testTable := []struct {
		name        string
		values      shared.ManualTask
		expectedErr error
	}{
		{"Valid", shared.ManualTask{Name: "n", Command: "uptime", Schedule: "* * * * *", Timeout: 30}, nil},
		{"Missing Schedule", shared.ManualTask{Name: "n", Command: "uptime"}, ErrRequired},
		{"Bad Schedule", shared.ManualTask{Name: "n", Command: "uptime", Schedule: "61 * * * *"}, ErrInvalidSchedule},
		{"Negative Timeout", shared.ManualTask{Name: "n", Command: "uptime", Schedule: "@daily", Timeout: -1}, ErrNegative},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTaskForm()
			f.Values = tt.values
			err := f.Submit(func(shared.ManualTask) error { return nil })
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected (%v), got (%v)", tt.expectedErr, err)
			}
			if tt.expectedErr == nil {
				assert.Equal(t, shared.ManualTask{}, f.Values)
			} else {
				assert.Equal(t, tt.values, f.Values)
			}
		})
	}
}

func TestTaskFormFailureKeepsInput(t *testing.T) {
	f := NewTaskForm()
	f.Values = shared.ManualTask{Name: "n", Command: "uptime", Schedule: "@daily"}
	err := f.Submit(func(shared.ManualTask) error { return errors.New("HTTP error! status: 500") })
	require.Error(t, err)
	assert.Equal(t, "uptime", f.Values.Command)
	assert.Equal(t, "HTTP error! status: 500", f.Err)
}

func TestChangePasswordForm(t *testing.T) {
	testTable := []struct {
		name        string
		form        ChangePasswordForm
		expectedErr error
	}{
		{"Valid", ChangePasswordForm{Old: "a", New: "b", Confirm: "b"}, nil},
		{"Missing Old", ChangePasswordForm{New: "b", Confirm: "b"}, ErrRequired},
		{"Mismatch", ChangePasswordForm{Old: "a", New: "b", Confirm: "c"}, ErrPasswordMismatch},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			var gotOld, gotNew string
			err := f.Submit(func(o, n string) error { gotOld, gotNew = o, n; return nil })
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected (%v), got (%v)", tt.expectedErr, err)
			}
			if tt.expectedErr == nil {
				assert.Equal(t, tt.form.Old, gotOld)
				assert.Equal(t, tt.form.New, gotNew)
				assert.Equal(t, ChangePasswordForm{}, f)
			}
		})
	}
}

func TestRegisterForm(t *testing.T) {
	assert.NoError(t, (&RegisterForm{Username: "u", Password: "p", Confirm: "p"}).Validate())
	assert.ErrorIs(t, (&RegisterForm{Username: "u", Password: "p", Confirm: "q"}).Validate(), ErrPasswordMismatch)
	assert.ErrorIs(t, (&LoginForm{Username: "u"}).Validate(), ErrRequired)
}

func TestNextRuns(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 2, 0, 0, time.UTC)

	runs, err := NextRuns("*/5 * * * *", from, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC), runs[0])
	assert.Equal(t, time.Date(2024, 3, 1, 10, 10, 0, 0, time.UTC), runs[1])
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), runs[2])

	_, err = NextRuns("nope", from, 3)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}
