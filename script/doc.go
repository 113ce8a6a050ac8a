// Package script lets action handlers be written in Lua.
//
// A script is Lua source that evaluates to a function taking the
// payload and a controller table:
//
//	h, err := script.NewHandler(`
//	    return function(payload, pc)
//	        if payload.total > 100 then
//	            pc.abort("total too large")
//	            return
//	        end
//	        pc.set_result(payload.total * 2)
//	    end
//	`)
//	defer h.Close()
//	eng.Register("checkout", h.HandlerFunc(), pipeline.HandlerConfig{Priority: 50})
//
// The controller table exposes abort, set_result, get_payload,
// modify_payload, return_value, jump_to_priority, and results,
// mirroring the Go controller surface. A non-nil value returned by the
// script function is appended as a result.
//
// Each handler owns one sandboxed Lua state with only the base, table,
// string, and math libraries opened. Lua states are not
// goroutine-safe, so invocations of the same handler serialize on an
// internal mutex even in the parallel and race execution modes.
package script
