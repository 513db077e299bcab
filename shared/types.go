/*
Copyright 2023 AmidaWare Inc.

Licensed under the Tactical RMM License Version 1.0 (the “License”).
You may only use the Licensed Software in accordance with the License.
A copy of the License is available at:

https://license.tacticalrmm.com

*/

package shared

import (
	"time"
)

// ScriptType is the interpreter the backend uses to run a script
type ScriptType string

const (
	ScriptShell  ScriptType = "shell"
	ScriptPython ScriptType = "python"
	ScriptNodeJS ScriptType = "nodejs"
)

var ScriptTypes = []ScriptType{ScriptShell, ScriptPython, ScriptNodeJS}

func (t ScriptType) Valid() bool {
	for _, st := range ScriptTypes {
		if t == st {
			return true
		}
	}
	return false
}

// Label is the human readable name used in forms and lists
func (t ScriptType) Label() string {
	switch t {
	case ScriptShell:
		return "Shell Script"
	case ScriptPython:
		return "Python Script"
	case ScriptNodeJS:
		return "Node.js Script"
	}
	return string(t)
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	// older backends report finished runs as success
	TaskSuccess TaskStatus = "success"
)

// Finished reports whether the run reached a terminal state
func (s TaskStatus) Finished() bool {
	return s == TaskCompleted || s == TaskSuccess || s == TaskFailed
}

type Script struct {
	ID       int64      `json:"id,omitempty"`
	Name     string     `json:"name"`
	Content  string     `json:"content"`
	Schedule string     `json:"schedule"`
	Type     ScriptType `json:"type"`
	LastRun  *time.Time `json:"last_run,omitempty"`
}

// Manual reports whether the script only runs on demand
func (s Script) Manual() bool {
	return s.Schedule == ""
}

type Task struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	ScriptID   int64      `json:"script_id"`
	ScriptName string     `json:"script_name"`
	Status     TaskStatus `json:"status"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	Output     string     `json:"output"`
	Error      string     `json:"error"`
}

// ManualTask is the payload of the legacy add task form. It is not linked to a script.
type ManualTask struct {
	Name     string `json:"name"`
	Command  string `json:"command"`
	Schedule string `json:"schedule"`
	Timeout  int    `json:"timeout"`
}

type User struct {
	ID       int64  `json:"id" codec:"id"`
	Username string `json:"username" codec:"username"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ErrorBody is what the backend sends on non 2xx responses. Handlers are not
// consistent about which of the two fields they fill in.
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
