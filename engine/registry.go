package engine

import (
	"sort"
	"sync"

	"github.com/mineclover/context-action-go/pipeline"
)

// Registry owns the per-action pipelines: ordered lists of handler
// registrations sorted by priority descending, ties preserving
// registration order.
//
// Mutations are funneled through the engine's operation queue keyed by
// action name; the mutex makes introspection reads safe without a
// queue round-trip. Callers never see the live pipelines, only
// snapshots.
type Registry struct {
	mu         sync.RWMutex
	pipelines  map[string][]pipeline.Registration
	actionByID map[string]string // registration id -> action name
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		pipelines:  make(map[string][]pipeline.Registration),
		actionByID: make(map[string]string),
	}
}

// Insert adds a registration to an action's pipeline. A registration
// whose id is already present replaces the prior one: in place when the
// priority is unchanged, removed and re-inserted otherwise. Ids are
// unique across the registry; inserting an id registered under another
// action moves it.
func (r *Registry) Insert(action string, reg pipeline.Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := reg.Config.ID
	if prev, ok := r.actionByID[id]; ok {
		if prev == action {
			regs := r.pipelines[action]
			for i, existing := range regs {
				if existing.Config.ID != id {
					continue
				}
				if existing.Config.Priority == reg.Config.Priority {
					regs[i] = reg
					return
				}
				r.pipelines[action] = append(regs[:i], regs[i+1:]...)
				break
			}
		} else {
			r.removeLocked(prev, id)
		}
	}

	regs := append(r.pipelines[action], reg)
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].Config.Priority > regs[j].Config.Priority
	})
	r.pipelines[action] = regs
	r.actionByID[id] = action
}

// Remove deletes a registration by id. Removing an unknown id is a
// no-op; Remove reports whether anything was deleted.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actionByID[id]
	if !ok {
		return false
	}
	r.removeLocked(action, id)
	return true
}

// removeLocked deletes one registration. Caller holds the write lock.
func (r *Registry) removeLocked(action, id string) {
	regs := r.pipelines[action]
	for i, reg := range regs {
		if reg.Config.ID == id {
			r.pipelines[action] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(r.pipelines[action]) == 0 {
		delete(r.pipelines, action)
	}
	delete(r.actionByID, id)
}

// ActionOf returns the action a registration id belongs to.
func (r *Registry) ActionOf(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actionByID[id]
	return action, ok
}

// Snapshot returns a copy of an action's pipeline for a dispatch walk.
// Returns nil when no handlers are registered.
func (r *Registry) Snapshot(action string) []pipeline.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := r.pipelines[action]
	if len(regs) == 0 {
		return nil
	}
	snapshot := make([]pipeline.Registration, len(regs))
	copy(snapshot, regs)
	return snapshot
}

// Has reports whether any handler is registered for the action.
func (r *Registry) Has(action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pipelines[action]) > 0
}

// HandlerCount returns the number of handlers registered for the
// action.
func (r *Registry) HandlerCount(action string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pipelines[action])
}

// Actions returns all action names with registered handlers, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pipelines))
	for name := range r.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of actions with registered handlers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pipelines)
}

// Clear removes all registrations.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines = make(map[string][]pipeline.Registration)
	r.actionByID = make(map[string]string)
}
