package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amidaware/schedctl/console/api"
	"github.com/amidaware/schedctl/console/dashboard"
	"github.com/amidaware/schedctl/console/forms"
	"github.com/amidaware/schedctl/console/guard"
	"github.com/amidaware/schedctl/console/render"
	"github.com/amidaware/schedctl/shared"
	"github.com/spf13/cobra"
)

var taskCmd = guard.Annotate(&cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks"},
	Short:   "Inspect and manage task runs",
}, guard.Dashboard)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a task with its output",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a manual task that is not linked to a script",
	Args:  cobra.NoArgs,
	RunE:  runTaskAdd,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskRerunCmd = &cobra.Command{
	Use:   "rerun ID",
	Short: "Run a task again",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRerun,
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle NAME",
	Short: "Enable or disable a task by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskToggle,
}

func init() {
	taskListCmd.Flags().Int64("script", 0, "Only tasks of this script id")

	taskAddCmd.Flags().String("name", "", "Task name")
	taskAddCmd.Flags().String("command", "", "Command to run")
	taskAddCmd.Flags().String("schedule", "", "Cron expression")
	taskAddCmd.Flags().Int("timeout", 0, "Timeout in seconds, 0 for none")

	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskAddCmd, taskDeleteCmd, taskRerunCmd, taskToggleCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	scriptID, _ := cmd.Flags().GetInt64("script")
	if scriptID > 0 {
		tasks, err := cons.API.ListTasksForScript(cmd.Context(), scriptID).Unwrap()
		if err != nil {
			cons.Notifier.Error(err.Error())
			return err
		}
		return render.Tasks(cmd.OutOrStdout(), tasks, time.Now())
	}

	if err := cons.Dashboard.FetchTasks(cmd.Context()); err != nil {
		return err
	}
	return render.Tasks(cmd.OutOrStdout(), cons.Dashboard.State().Tasks, time.Now())
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	task, err := lookupTask(cmd.Context(), cons.API, cons.Dashboard, cons.Notifier, id)
	if err != nil {
		return err
	}
	return render.Task(cmd.OutOrStdout(), task)
}

type taskGetter interface {
	GetTask(ctx context.Context, taskID int64) api.Result[shared.Task]
}

// lookupTask asks for one task and falls back to the task list only when the
// backend has no single task endpoint (404 or 405). Anything else is reported.
func lookupTask(ctx context.Context, client taskGetter, dash *dashboard.Dashboard, n dashboard.Notifier, id int64) (shared.Task, error) {
	res := client.GetTask(ctx, id)
	if res.Ok() {
		return res.Value(), nil
	}
	switch res.Status() {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
	default:
		n.Error(res.Message())
		return shared.Task{}, res.Err()
	}

	if err := dash.FetchTasks(ctx); err != nil {
		return shared.Task{}, err
	}
	if !dash.ShowTask(id) {
		return shared.Task{}, fmt.Errorf("task %d not found", id)
	}
	return *dash.State().Detail, nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	form := forms.NewTaskForm()
	form.Values.Name, _ = cmd.Flags().GetString("name")
	form.Values.Command, _ = cmd.Flags().GetString("command")
	form.Values.Schedule, _ = cmd.Flags().GetString("schedule")
	form.Values.Timeout, _ = cmd.Flags().GetInt("timeout")

	name := form.Values.Name
	if err := form.Submit(func(t shared.ManualTask) error { return cons.Dashboard.AddTask(cmd.Context(), t) }); err != nil {
		return fmt.Errorf("adding task: %s", form.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Task added: %s\n", name)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return cons.Dashboard.DeleteTask(cmd.Context(), id)
}

func runTaskRerun(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return cons.Dashboard.RerunTask(cmd.Context(), id)
}

func runTaskToggle(cmd *cobra.Command, args []string) error {
	if err := cons.Dashboard.ToggleTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Task toggled: %s\n", args[0])
	return nil
}
