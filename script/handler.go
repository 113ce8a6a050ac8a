package script

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/mineclover/context-action-go/pipeline"
)

// Handler wraps a Lua function as an action handler. Each Handler owns
// one sandboxed Lua state; invocations serialize on an internal mutex
// because Lua states are not goroutine-safe.
type Handler struct {
	mu     sync.Mutex
	L      *lua.LState
	fn     *lua.LFunction
	closed bool
}

// NewHandler compiles Lua source that must evaluate to a function of
// (payload, controller).
func NewHandler(source string) (*Handler, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // open selectively below
	})
	openSafeLibraries(L)

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("script: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, ErrNotAFunction
	}

	return &Handler{L: L, fn: fn}, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
// io, os, debug, and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Close releases the Lua state. The handler must not be invoked after
// Close.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.L.Close()
}

// HandlerFunc adapts the script to the pipeline handler signature.
func (h *Handler) HandlerFunc() pipeline.HandlerFunc {
	return func(ctx context.Context, payload any, pc *pipeline.Controller) error {
		return h.invoke(payload, pc)
	}
}

// invoke runs the Lua function with the payload and a controller
// table.
func (h *Handler) invoke(payload any, pc *pipeline.Controller) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandlerClosed
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script: lua panic: %v", r)
		}
	}()

	L := h.L
	L.Push(h.fn)
	L.Push(toLua(L, payload))
	L.Push(h.controllerTable(L, pc))

	if err := L.PCall(2, 1, nil); err != nil {
		return fmt.Errorf("script: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret != lua.LNil {
		pc.SetResult(toGo(ret))
	}
	return nil
}

// controllerTable exposes the controller surface to the script.
func (h *Handler) controllerTable(L *lua.LState, pc *pipeline.Controller) *lua.LTable {
	t := L.NewTable()

	t.RawSetString("abort", L.NewFunction(func(L *lua.LState) int {
		pc.Abort(L.OptString(1, ""))
		return 0
	}))

	t.RawSetString("set_result", L.NewFunction(func(L *lua.LState) int {
		pc.SetResult(toGo(L.Get(1)))
		return 0
	}))

	t.RawSetString("get_payload", L.NewFunction(func(L *lua.LState) int {
		L.Push(toLua(L, pc.Payload()))
		return 1
	}))

	t.RawSetString("modify_payload", L.NewFunction(func(L *lua.LState) int {
		next := toGo(L.Get(1))
		pc.ModifyPayload(func(any) any { return next })
		return 0
	}))

	t.RawSetString("return_value", L.NewFunction(func(L *lua.LState) int {
		pc.Return(toGo(L.Get(1)))
		return 0
	}))

	t.RawSetString("jump_to_priority", L.NewFunction(func(L *lua.LState) int {
		pc.JumpToPriority(int(L.CheckNumber(1)))
		return 0
	}))

	t.RawSetString("results", L.NewFunction(func(L *lua.LState) int {
		L.Push(toLua(L, pc.Results()))
		return 1
	}))

	return t
}
