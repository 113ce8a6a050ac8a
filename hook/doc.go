// Package hook provides extensible pre/post dispatch hooks for the
// action engine.
//
// Pre-dispatch hooks run before a pipeline walk starts. They may
// rewrite the payload or cancel the dispatch entirely. Post-dispatch
// hooks observe and may annotate the finished result envelope.
//
// Hooks are ordered by priority: higher priority pre-hooks run first,
// while post-hooks run lowest first so that higher priority hooks see
// the final, possibly modified result. Registering a hook with the name
// of an existing hook replaces it.
package hook
