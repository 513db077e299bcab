package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/amidaware/schedctl/console/api"
	"github.com/amidaware/schedctl/console/metrics"
	"github.com/amidaware/schedctl/shared"
	"github.com/sirupsen/logrus"
)

// API is the slice of the backend client the dashboard drives
type API interface {
	ListScripts(ctx context.Context) api.Result[[]shared.Script]
	CreateScript(ctx context.Context, script shared.Script) api.Result[shared.Script]
	UpdateScript(ctx context.Context, scriptID int64, script shared.Script) api.Result[shared.Script]
	DeleteScript(ctx context.Context, scriptID int64) api.Result[api.Empty]
	RunScript(ctx context.Context, scriptID int64) api.Result[api.Empty]

	ListTasks(ctx context.Context) api.Result[[]shared.Task]
	AddTask(ctx context.Context, task shared.ManualTask) api.Result[api.Empty]
	DeleteTask(ctx context.Context, taskID int64) api.Result[api.Empty]
	RerunTask(ctx context.Context, taskID int64) api.Result[api.Empty]
	ToggleTask(ctx context.Context, name string) api.Result[api.Empty]
}

type Notifier interface {
	Success(msg string) string
	Error(msg string) string
	Promise(loading, success string, fn func() error) error
}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhasePopulated Phase = "populated"
	PhaseErrored   Phase = "errored"
)

type Dialog struct {
	Open bool
	// Edit is the script being edited, nil while creating
	Edit *shared.Script
}

// State is a copy of everything the dashboard shows. Scripts and Tasks are
// always the full result of the latest successful fetch.
type State struct {
	Scripts      []shared.Script
	ScriptsPhase Phase
	ScriptsErr   string
	ScriptsAt    time.Time

	Tasks      []shared.Task
	TasksPhase Phase
	TasksErr   string
	TasksAt    time.Time

	Loading bool
	Dialog  Dialog
	Detail  *shared.Task
}

type Dashboard struct {
	mu       sync.Mutex
	state    State
	api      API
	notify   Notifier
	onChange func()
	now      func() time.Time
	log      *logrus.Entry
}

func New(client API, notifier Notifier, logger *logrus.Logger) *Dashboard {
	return &Dashboard{
		state: State{
			Scripts:      make([]shared.Script, 0),
			ScriptsPhase: PhaseIdle,
			Tasks:        make([]shared.Task, 0),
			TasksPhase:   PhaseIdle,
		},
		api:    client,
		notify: notifier,
		now:    time.Now,
		log:    logger.WithField("component", "dashboard"),
	}
}

// OnChange registers fn to run after every state change, outside the lock
func (d *Dashboard) OnChange(fn func()) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	ret := d.state
	ret.Scripts = append(make([]shared.Script, 0, len(d.state.Scripts)), d.state.Scripts...)
	ret.Tasks = append(make([]shared.Task, 0, len(d.state.Tasks)), d.state.Tasks...)
	if d.state.Dialog.Edit != nil {
		s := *d.state.Dialog.Edit
		ret.Dialog.Edit = &s
	}
	if d.state.Detail != nil {
		t := *d.state.Detail
		ret.Detail = &t
	}
	return ret
}

func (d *Dashboard) update(fn func(s *State)) {
	d.mu.Lock()
	fn(&d.state)
	cb := d.onChange
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// FetchScripts replaces the script list. On failure the old list stays.
func (d *Dashboard) FetchScripts(ctx context.Context) error {
	d.update(func(s *State) { s.ScriptsPhase = PhaseFetching })

	scripts, err := d.api.ListScripts(ctx).Unwrap()
	if err != nil {
		d.log.Errorln("Error fetching scripts:", err)
		d.notify.Error(err.Error())
		d.update(func(s *State) {
			s.ScriptsPhase = PhaseErrored
			s.ScriptsErr = err.Error()
		})
		return err
	}

	d.update(func(s *State) {
		s.Scripts = scripts
		s.ScriptsPhase = PhasePopulated
		s.ScriptsErr = ""
		s.ScriptsAt = d.now()
	})
	return nil
}

// FetchTasks replaces the task list. On failure the old list stays.
func (d *Dashboard) FetchTasks(ctx context.Context) error {
	d.update(func(s *State) { s.TasksPhase = PhaseFetching })

	tasks, err := d.api.ListTasks(ctx).Unwrap()
	if err != nil {
		d.log.Errorln("Error fetching tasks:", err)
		d.notify.Error(err.Error())
		d.update(func(s *State) {
			s.TasksPhase = PhaseErrored
			s.TasksErr = err.Error()
		})
		return err
	}

	metrics.ObserveTasks(tasks)
	d.update(func(s *State) {
		s.Tasks = tasks
		s.TasksPhase = PhasePopulated
		s.TasksErr = ""
		s.TasksAt = d.now()
		if s.Detail != nil {
			s.Detail = findTask(tasks, s.Detail.ID)
		}
	})
	return nil
}

// Refresh fetches both collections, tasks first
func (d *Dashboard) Refresh(ctx context.Context) {
	d.FetchTasks(ctx)
	d.FetchScripts(ctx)
}

func (d *Dashboard) setLoading(v bool) {
	d.update(func(s *State) { s.Loading = v })
}

// AddScript returns the backend error so the form can keep its input
func (d *Dashboard) AddScript(ctx context.Context, script shared.Script) error {
	d.setLoading(true)
	defer d.setLoading(false)

	if err := d.api.CreateScript(ctx, script).Err(); err != nil {
		d.notify.Error(err.Error())
		return err
	}
	d.FetchScripts(ctx)
	d.notify.Success("Script created successfully")
	d.closeDialog()
	return nil
}

func (d *Dashboard) UpdateScript(ctx context.Context, scriptID int64, script shared.Script) error {
	d.setLoading(true)
	defer d.setLoading(false)

	if err := d.api.UpdateScript(ctx, scriptID, script).Err(); err != nil {
		d.notify.Error(err.Error())
		return err
	}
	d.FetchScripts(ctx)
	d.notify.Success("Script updated successfully")
	d.closeDialog()
	return nil
}

// SaveScript creates or updates depending on the dialog's edit target
func (d *Dashboard) SaveScript(ctx context.Context, script shared.Script) error {
	d.mu.Lock()
	edit := d.state.Dialog.Edit
	d.mu.Unlock()

	if edit != nil {
		return d.UpdateScript(ctx, edit.ID, script)
	}
	return d.AddScript(ctx, script)
}

// DeleteScript refetches scripts once on success and never on failure
func (d *Dashboard) DeleteScript(ctx context.Context, scriptID int64) error {
	return d.notify.Promise("Deleting script...", "Script deleted successfully", func() error {
		if err := d.api.DeleteScript(ctx, scriptID).Err(); err != nil {
			return err
		}
		d.FetchScripts(ctx)
		return nil
	})
}

// RunScript refetches tasks once whatever the outcome, a failed run may
// still have created a task
func (d *Dashboard) RunScript(ctx context.Context, scriptID int64) error {
	err := d.notify.Promise("Running script...", "Script Submitted successfully", func() error {
		return d.api.RunScript(ctx, scriptID).Err()
	})
	d.FetchTasks(ctx)
	return err
}

func (d *Dashboard) DeleteTask(ctx context.Context, taskID int64) error {
	return d.notify.Promise("Deleting task...", "Task deleted successfully", func() error {
		if err := d.api.DeleteTask(ctx, taskID).Err(); err != nil {
			return err
		}
		d.FetchTasks(ctx)
		return nil
	})
}

func (d *Dashboard) RerunTask(ctx context.Context, taskID int64) error {
	err := d.notify.Promise("Rerunning task...", "Task Submitted successfully", func() error {
		return d.api.RerunTask(ctx, taskID).Err()
	})
	d.FetchTasks(ctx)
	return err
}

// ToggleTask failures are logged and shown like every other mutation
func (d *Dashboard) ToggleTask(ctx context.Context, name string) error {
	if err := d.api.ToggleTask(ctx, name).Err(); err != nil {
		d.log.WithField("task", name).Errorln("Error toggling task:", err)
		d.notify.Error(err.Error())
		return err
	}
	d.FetchTasks(ctx)
	return nil
}

// AddTask posts the legacy manual task form
func (d *Dashboard) AddTask(ctx context.Context, task shared.ManualTask) error {
	if err := d.api.AddTask(ctx, task).Err(); err != nil {
		d.log.WithField("task", task.Name).Errorln("Error adding task:", err)
		return err
	}
	d.FetchTasks(ctx)
	return nil
}

func (d *Dashboard) OpenCreate() {
	d.update(func(s *State) { s.Dialog = Dialog{Open: true} })
}

func (d *Dashboard) OpenEdit(script shared.Script) {
	d.update(func(s *State) { s.Dialog = Dialog{Open: true, Edit: &script} })
}

func (d *Dashboard) CloseDialog() {
	d.closeDialog()
}

func (d *Dashboard) closeDialog() {
	d.update(func(s *State) { s.Dialog = Dialog{} })
}

// ShowTask selects a task from the current snapshot for the detail view
func (d *Dashboard) ShowTask(taskID int64) bool {
	found := false
	d.update(func(s *State) {
		s.Detail = findTask(s.Tasks, taskID)
		found = s.Detail != nil
	})
	return found
}

func (d *Dashboard) CloseTask() {
	d.update(func(s *State) { s.Detail = nil })
}

func findTask(tasks []shared.Task, taskID int64) *shared.Task {
	for i := range tasks {
		if tasks[i].ID == taskID {
			t := tasks[i]
			return &t
		}
	}
	return nil
}
