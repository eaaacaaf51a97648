package view

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Func is a generated view.
type Func func(v *Context)

var ErrUnknownView = errors.New("unknown view")

var (
	mu    sync.RWMutex
	views = map[string]Func{}
)

// Register makes fn available under name. It panics if name is already
// registered or fn is nil.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if fn == nil {
		panic("view: Register of nil view " + name)
	}
	if _, dup := views[name]; dup {
		panic("view: Register called twice for view " + name)
	}
	views[name] = fn
}

func Lookup(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := views[name]
	return fn, ok
}

// Names returns the registered view names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render runs the view name against v and returns the body.
func Render(name string, v *Context) (string, error) {
	fn, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	fn(v)
	return v.String(), nil
}
