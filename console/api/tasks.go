package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amidaware/schedctl/shared"
)

func (c *Client) ListTasks(ctx context.Context) Result[[]shared.Task] {
	return c.listTasks(ctx, nil)
}

// ListTasksForScript narrows the list to runs of one script
func (c *Client) ListTasksForScript(ctx context.Context, scriptID int64) Result[[]shared.Task] {
	return c.listTasks(ctx, map[string]string{"script_id": fmt.Sprint(scriptID)})
}

func (c *Client) listTasks(ctx context.Context, query map[string]string) Result[[]shared.Task] {
	tasks := make([]shared.Task, 0)
	if err := c.do(ctx, call{op: "list_tasks", method: http.MethodGet, path: "/tasks", query: query, out: &tasks}); err != nil {
		return Err[[]shared.Task](err)
	}
	if tasks == nil {
		tasks = make([]shared.Task, 0)
	}
	return Ok(tasks)
}

func (c *Client) GetTask(ctx context.Context, taskID int64) Result[shared.Task] {
	var task shared.Task
	if err := c.do(ctx, call{op: "get_task", method: http.MethodGet, path: "/tasks/{id}", params: id(taskID), out: &task}); err != nil {
		return Err[shared.Task](err)
	}
	return Ok(task)
}

// AddTask posts a legacy manual task, not linked to any script
func (c *Client) AddTask(ctx context.Context, task shared.ManualTask) Result[Empty] {
	if err := c.do(ctx, call{op: "add_task", method: http.MethodPost, path: "/tasks", body: task}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}

func (c *Client) DeleteTask(ctx context.Context, taskID int64) Result[Empty] {
	if err := c.do(ctx, call{op: "delete_task", method: http.MethodDelete, path: "/tasks/{id}", params: id(taskID)}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}

func (c *Client) RerunTask(ctx context.Context, taskID int64) Result[Empty] {
	if err := c.do(ctx, call{op: "rerun_task", method: http.MethodPost, path: "/tasks/{id}/rerun", params: id(taskID)}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}

// ToggleTask is addressed by task name, not id
func (c *Client) ToggleTask(ctx context.Context, name string) Result[Empty] {
	if err := c.do(ctx, call{op: "toggle_task", method: http.MethodPost, path: "/tasks/{name}/toggle", params: map[string]string{"name": name}}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}
