package script_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mineclover/context-action-go/engine"
	"github.com/mineclover/context-action-go/pipeline"
	"github.com/mineclover/context-action-go/script"
)

func newHandler(t *testing.T, source string) *script.Handler {
	t.Helper()
	h, err := script.NewHandler(source)
	if err != nil {
		t.Fatalf("compile script: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func TestScriptReturnValueBecomesResult(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			return payload * 2
		end
	`)

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "double"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, 21, pipeline.DispatchOptions{})

	if len(res.Results) != 1 || res.Results[0] != int64(42) {
		t.Errorf("expected [42], got %v", res.Results)
	}
}

func TestScriptControllerAbort(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			ctl.abort("denied by script")
		end
	`)

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "guard"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, nil, pipeline.DispatchOptions{})

	if !res.Aborted || res.AbortReason != "denied by script" {
		t.Errorf("expected script abort, got %+v", res)
	}
}

func TestScriptSetResultAndPayload(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			ctl.set_result(payload.name)
			ctl.set_result(#payload.items)
		end
	`)

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "reader"}, Fn: h.HandlerFunc()}}
	p := map[string]any{"name": "ana", "items": []any{1, 2, 3}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, p, pipeline.DispatchOptions{})

	if len(res.Results) != 2 || res.Results[0] != "ana" || res.Results[1] != int64(3) {
		t.Errorf("expected [ana 3], got %v", res.Results)
	}
}

func TestScriptModifyPayload(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			ctl.modify_payload({ stamped = true })
		end
	`)

	var got any
	regs := []pipeline.Registration{
		{Config: pipeline.HandlerConfig{ID: "stamp", Priority: 20}, Fn: h.HandlerFunc()},
		{
			Config: pipeline.HandlerConfig{ID: "check", Priority: 10},
			Fn: func(ctx context.Context, payload any, pc *pipeline.Controller) error {
				got = payload
				return nil
			},
		},
	}

	pipeline.NewExecutor().Run(context.Background(), regs, map[string]any{}, pipeline.DispatchOptions{})

	m, ok := got.(map[string]any)
	if !ok || m["stamped"] != true {
		t.Errorf("expected stamped payload downstream, got %v", got)
	}
}

func TestScriptReturnValueTerminates(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			ctl.return_value("early")
		end
	`)

	skipped := false
	regs := []pipeline.Registration{
		{Config: pipeline.HandlerConfig{ID: "early", Priority: 20}, Fn: h.HandlerFunc()},
		{
			Config: pipeline.HandlerConfig{ID: "later", Priority: 10},
			Fn: func(ctx context.Context, payload any, pc *pipeline.Controller) error {
				skipped = true
				return nil
			},
		},
	}

	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, nil, pipeline.DispatchOptions{})

	if !res.Terminated || res.Result != "early" {
		t.Errorf("expected early termination, got %+v", res)
	}
	if skipped {
		t.Error("handler after termination must not run")
	}
}

func TestScriptTableConversion(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			return { name = "ana", tags = { "a", "b" } }
		end
	`)

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "tabler"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, nil, pipeline.DispatchOptions{})

	if len(res.Results) != 1 {
		t.Fatalf("expected one result, got %v", res.Results)
	}
	m, ok := res.Results[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", res.Results[0])
	}
	if m["name"] != "ana" {
		t.Errorf("expected name field, got %v", m["name"])
	}
	tags, ok := m["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" {
		t.Errorf("expected string array, got %v", m["tags"])
	}
}

func TestScriptCyclicTableResult(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			local t = { name = "node" }
			t.self = t
			ctl.set_result(t)
		end
	`)

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "cyclic"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, nil, pipeline.DispatchOptions{})

	if len(res.Results) != 1 {
		t.Fatalf("expected one result, got %v", res.Results)
	}
	m, ok := res.Results[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", res.Results[0])
	}
	if m["name"] != "node" {
		t.Errorf("expected name field to survive, got %v", m["name"])
	}
	if m["self"] != nil {
		t.Errorf("expected cycle broken to nil, got %v", m["self"])
	}
}

func TestScriptCyclicPayload(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			ctl.set_result(type(payload.self))
		end
	`)

	p := map[string]any{"id": 1}
	p["self"] = p

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "reader"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, p, pipeline.DispatchOptions{})

	if len(res.Results) != 1 || res.Results[0] != "nil" {
		t.Errorf("expected self-reference broken to nil, got %v", res.Results)
	}
}

func TestScriptMustReturnFunction(t *testing.T) {
	if _, err := script.NewHandler(`return 42`); !errors.Is(err, script.ErrNotAFunction) {
		t.Errorf("expected ErrNotAFunction, got %v", err)
	}
	if _, err := script.NewHandler(`this is not lua`); err == nil {
		t.Error("expected compile error")
	}
}

func TestScriptSandbox(t *testing.T) {
	// io and os stay closed in the sandbox; touching them raises a Lua
	// error that surfaces as an isolated handler failure.
	h := newHandler(t, `
		return function(payload, ctl)
			return io.open("/etc/passwd")
		end
	`)

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "escape"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, nil, pipeline.DispatchOptions{})

	if len(res.Errors) != 1 {
		t.Fatalf("expected sandbox violation to fail the handler, got %+v", res)
	}
}

func TestScriptClosedHandler(t *testing.T) {
	h, err := script.NewHandler(`return function(payload, ctl) end`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	h.Close()
	h.Close() // idempotent

	regs := []pipeline.Registration{{Config: pipeline.HandlerConfig{ID: "dead"}, Fn: h.HandlerFunc()}}
	res, _ := pipeline.NewExecutor().Run(context.Background(), regs, nil, pipeline.DispatchOptions{})

	if len(res.Errors) != 1 || !errors.Is(res.Errors[0].Err, script.ErrHandlerClosed) {
		t.Errorf("expected ErrHandlerClosed, got %+v", res.Errors)
	}
}

func TestScriptHandlerInEngine(t *testing.T) {
	h := newHandler(t, `
		return function(payload, ctl)
			return "lua:" .. payload
		end
	`)

	e := engine.NewWithDefaults()
	if _, err := e.Register("greet", h.HandlerFunc(), pipeline.HandlerConfig{ID: "lua-greeter"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := e.Dispatch(context.Background(), "greet", "ana")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out != "lua:ana" {
		t.Errorf("expected lua greeting, got %v", out)
	}
}
