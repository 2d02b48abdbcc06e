package actions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ErrUnknownAction is wrapped by UnknownActionError
var ErrUnknownAction = errors.New("unknown action")

// UnknownActionError is returned when executing an unregistered action
type UnknownActionError struct {
	ID string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %q", e.ID)
}

func (e *UnknownActionError) Unwrap() error {
	return ErrUnknownAction
}

// Registry holds the registered actions. It is not safe for concurrent
// mutation; register actions during setup.
type Registry struct {
	actions map[string]Action
	keyMap  map[string]string // keybinding -> action ID
	order   map[string]int    // action ID -> registration sequence
	seq     int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
		keyMap:  make(map[string]string),
		order:   make(map[string]int),
	}
}

// Register adds an action, replacing any action with the same ID. When two
// actions share a keybinding the most recently registered one wins.
func (r *Registry) Register(a Action) {
	old, replaced := r.actions[a.ID]
	r.seq++
	r.actions[a.ID] = a
	r.order[a.ID] = r.seq
	if a.Keybinding != "" {
		r.keyMap[a.Keybinding] = a.ID
	}
	if replaced && old.Keybinding != "" && old.Keybinding != a.Keybinding {
		r.rebind(old.Keybinding)
	}
}

// Unregister removes an action; unknown IDs are ignored
func (r *Registry) Unregister(id string) {
	a, ok := r.actions[id]
	if !ok {
		return
	}
	delete(r.actions, id)
	delete(r.order, id)
	if a.Keybinding != "" && r.keyMap[a.Keybinding] == id {
		r.rebind(a.Keybinding)
	}
}

// rebind points key at the latest remaining action bound to it
func (r *Registry) rebind(key string) {
	best, bestSeq := "", 0
	for id, a := range r.actions {
		if a.Keybinding == key && r.order[id] > bestSeq {
			best, bestSeq = id, r.order[id]
		}
	}
	if best == "" {
		delete(r.keyMap, key)
		return
	}
	r.keyMap[key] = best
}

// Get returns the action with the given ID
func (r *Registry) Get(id string) (Action, bool) {
	a, ok := r.actions[id]
	return a, ok
}

// All returns every registered action in no particular order
func (r *Registry) All() []Action {
	out := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	return out
}

// ByCategory returns the actions in a category
func (r *Registry) ByCategory(category string) []Action {
	var out []Action
	for _, a := range r.actions {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// Execute runs the action with the given ID. Unknown IDs return an
// *UnknownActionError. A disabled action is skipped without error.
func (r *Registry) Execute(ctx context.Context, id string, ac Context, args ...string) error {
	a, ok := r.actions[id]
	if !ok {
		return &UnknownActionError{ID: id}
	}
	if a.IsEnabled != nil && !a.IsEnabled(ac) {
		return nil
	}
	if a.Execute == nil {
		return nil
	}
	return a.Execute(ctx, ac, args...)
}

// Search returns visible actions whose label, description or keywords
// contain query (case-insensitive), highest priority first. An empty
// query returns every visible action.
func (r *Registry) Search(query string, ac Context) []Action {
	q := strings.ToLower(strings.TrimSpace(query))

	var results []Action
	for _, a := range r.actions {
		if a.IsVisible != nil && !a.IsVisible(ac) {
			continue
		}
		if q != "" && !matches(a, q) {
			continue
		}
		results = append(results, a)
	}

	scores := fuzzyScores(q, results)
	sort.SliceStable(results, func(i, j int) bool {
		pi, iok := results[i].priority()
		pj, jok := results[j].priority()
		if iok != jok {
			return iok
		}
		if pi != pj {
			return pi > pj
		}
		si, sj := scores[results[i].ID], scores[results[j].ID]
		if si != sj {
			return si > sj
		}
		return results[i].ID < results[j].ID
	})

	return results
}

func matches(a Action, q string) bool {
	if strings.Contains(strings.ToLower(a.Label), q) ||
		strings.Contains(strings.ToLower(a.Description), q) {
		return true
	}
	for _, k := range a.Keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}

// fuzzyScores ranks labels against the query to order equal priorities
func fuzzyScores(q string, results []Action) map[string]int {
	scores := make(map[string]int, len(results))
	if q == "" {
		return scores
	}
	labels := make([]string, len(results))
	for i, a := range results {
		labels[i] = a.Label
	}
	for _, a := range results {
		scores[a.ID] = math.MinInt32
	}
	for _, m := range fuzzy.Find(q, labels) {
		scores[results[m.Index].ID] = m.Score
	}
	return scores
}

// FindByKeybinding returns the action bound to binding
func (r *Registry) FindByKeybinding(binding string) (Action, bool) {
	id, ok := r.keyMap[binding]
	if !ok {
		return Action{}, false
	}
	return r.Get(id)
}
