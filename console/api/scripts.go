package api

import (
	"context"
	"net/http"

	"github.com/amidaware/schedctl/shared"
)

func (c *Client) ListScripts(ctx context.Context) Result[[]shared.Script] {
	scripts := make([]shared.Script, 0)
	if err := c.do(ctx, call{op: "list_scripts", method: http.MethodGet, path: "/scripts", out: &scripts}); err != nil {
		return Err[[]shared.Script](err)
	}
	if scripts == nil {
		scripts = make([]shared.Script, 0)
	}
	return Ok(scripts)
}

func (c *Client) GetScript(ctx context.Context, scriptID int64) Result[shared.Script] {
	var script shared.Script
	if err := c.do(ctx, call{op: "get_script", method: http.MethodGet, path: "/scripts/{id}", params: id(scriptID), out: &script}); err != nil {
		return Err[shared.Script](err)
	}
	return Ok(script)
}

// CreateScript posts a new script. The backend answers with the stored
// record, which may be absent on older versions.
func (c *Client) CreateScript(ctx context.Context, script shared.Script) Result[shared.Script] {
	script.ID = 0
	var created shared.Script
	if err := c.do(ctx, call{op: "create_script", method: http.MethodPost, path: "/scripts", body: script, out: &created}); err != nil {
		return Err[shared.Script](err)
	}
	return Ok(created)
}

// UpdateScript replaces the whole record of scriptID
func (c *Client) UpdateScript(ctx context.Context, scriptID int64, script shared.Script) Result[shared.Script] {
	script.ID = scriptID
	var updated shared.Script
	if err := c.do(ctx, call{op: "update_script", method: http.MethodPut, path: "/scripts/{id}", params: id(scriptID), body: script, out: &updated}); err != nil {
		return Err[shared.Script](err)
	}
	return Ok(updated)
}

func (c *Client) DeleteScript(ctx context.Context, scriptID int64) Result[Empty] {
	if err := c.do(ctx, call{op: "delete_script", method: http.MethodDelete, path: "/scripts/{id}", params: id(scriptID)}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}

func (c *Client) RunScript(ctx context.Context, scriptID int64) Result[Empty] {
	if err := c.do(ctx, call{op: "run_script", method: http.MethodPost, path: "/scripts/{id}/run", params: id(scriptID)}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}
