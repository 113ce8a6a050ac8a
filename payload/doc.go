// Package payload provides helpers for JSON-shaped action payloads:
// gjson-backed condition predicates for gating handlers on payload
// content, and sjson-backed transforms for use with the controller's
// ModifyPayload.
//
// The helpers operate on payloads carried as string, []byte, or
// json.RawMessage. Payloads of any other shape fail conditions and
// pass through transforms unchanged.
package payload
