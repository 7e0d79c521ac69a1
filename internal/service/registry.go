package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/orkesta/orkesta/internal/platform"
	"github.com/orkesta/orkesta/internal/runner"
	"github.com/orkesta/orkesta/internal/secrets"
)

// Deps is everything a service constructor may need. The Platform is shared
// by reference into every service and outlives all of them.
type Deps struct {
	Platform *platform.Platform
	Runner   *runner.Runner
	Secrets  *secrets.Store
	Logger   *slog.Logger
}

// Factory constructs one service instance. Compiled-in services register a
// Factory from init(); the registry instantiates each exactly once per load.
type Factory func(Deps) (Service, error)

var (
	factoryMu sync.Mutex
	factories = make(map[string]Factory)
)

// RegisterFactory registers a compiled-in service constructor under its
// lowercase name. Registering the same name twice is a programming error and
// panics, mirroring database/sql.Register.
func RegisterFactory(name string, fn Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	key := strings.ToLower(name)
	if _, dup := factories[key]; dup {
		panic(fmt.Sprintf("service: RegisterFactory called twice for %q", key))
	}
	if fn == nil {
		panic(fmt.Sprintf("service: RegisterFactory with nil factory for %q", key))
	}
	factories[key] = fn
}

func registeredFactories() map[string]Factory {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	out := make(map[string]Factory, len(factories))
	for name, fn := range factories {
		out[name] = fn
	}
	return out
}

// Counts aggregates registry statistics. Installed and Running are live
// probes, not cached state.
type Counts struct {
	Total     int
	Installed int
	Running   int
}

// Registry owns the live service instances. It is an explicitly constructed
// value, never a process global, so tests can run independent registries in
// parallel. Load and Reload replace the instance map wholesale; queries take
// the read lock.
type Registry struct {
	deps       Deps
	scriptsDir string
	logger     *slog.Logger

	// extraFactories take part in every load alongside the globally
	// registered ones. Tests use this to avoid cross-test global state.
	extraFactories map[string]Factory

	mu       sync.RWMutex
	services map[string]Service
}

// NewRegistry creates an empty registry. Call Load to populate it.
func NewRegistry(deps Deps, scriptsDir string) *Registry {
	return &Registry{
		deps:       deps,
		scriptsDir: scriptsDir,
		logger:     deps.Logger.With("component", "registry"),
		services:   make(map[string]Service),
	}
}

// AddFactory registers a constructor on this registry only, effective at the
// next Load or Reload. Duplicate names are rejected with a logged error.
func (r *Registry) AddFactory(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if r.extraFactories == nil {
		r.extraFactories = make(map[string]Factory)
	}
	if _, dup := r.extraFactories[key]; dup {
		r.logger.Error("duplicate registry factory rejected", "name", key)
		return
	}
	r.extraFactories[key] = fn
}

// Load instantiates every registered factory and every discovered helper
// script, indexing instances by lowercase name. A factory that fails or
// panics is logged and skipped; it never aborts the load of sibling
// services. Duplicate names are rejected: the first instance wins and the
// collision is logged as an error.
func (r *Registry) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = r.buildLocked()
}

// Reload clears the registry and rescans, picking up helper scripts added
// or removed since the last load without restarting the process.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = r.buildLocked()
	r.logger.Info("registry reloaded", "services", len(r.services))
}

func (r *Registry) buildLocked() map[string]Service {
	out := make(map[string]Service)

	all := registeredFactories()
	for name, fn := range r.extraFactories {
		if _, dup := all[name]; dup {
			r.logger.Error("registry factory shadows registered factory, skipping", "name", name)
			continue
		}
		all[name] = fn
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc, err := r.instantiate(name, all[name])
		if err != nil {
			r.logger.Error("service factory failed, skipping", "name", name, "error", err)
			continue
		}
		if svc == nil {
			r.logger.Error("service factory returned nil, skipping", "name", name)
			continue
		}
		key := strings.ToLower(svc.Meta().Name)
		if _, dup := out[key]; dup {
			r.logger.Error("duplicate service name rejected", "name", key)
			continue
		}
		out[key] = svc
		r.logger.Info("service loaded", "name", key, "source", "factory")
	}

	scripts, err := DiscoverScripts(r.scriptsDir, r.logger)
	if err != nil {
		r.logger.Error("script discovery failed", "dir", r.scriptsDir, "error", err)
		return out
	}
	for _, info := range scripts {
		if _, claimed := out[info.Name]; claimed {
			// A compiled-in service already manages this script.
			continue
		}
		out[info.Name] = NewScriptService(info.Meta, info.Script, r.deps.Runner, r.deps.Logger)
		r.logger.Info("service loaded", "name", info.Name, "source", "script")
	}

	return out
}

// instantiate calls a factory, converting a panic into an error so one
// broken constructor cannot take down discovery of sibling services.
func (r *Registry) instantiate(name string, fn Factory) (svc Service, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			svc = nil
			err = fmt.Errorf("service %s: constructor panic: %v", name, rec)
		}
	}()
	return fn(r.deps)
}

// Get returns the service with the given name, case-insensitively.
func (r *Registry) Get(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[strings.ToLower(name)]
	return svc, ok
}

// All returns every service sorted by name.
func (r *Registry) All() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Service, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Meta().Name < out[j].Meta().Name
	})
	return out
}

// ByType returns services of the given type, sorted by name.
func (r *Registry) ByType(t Type) []Service {
	var out []Service
	for _, svc := range r.All() {
		if svc.Meta().Type == t {
			out = append(out, svc)
		}
	}
	return out
}

// Installed returns services whose installed probe reports true right now.
func (r *Registry) Installed(ctx context.Context) []Service {
	var out []Service
	for _, svc := range r.All() {
		if svc.IsInstalled(ctx) {
			out = append(out, svc)
		}
	}
	return out
}

// Running returns services whose running probe reports true right now.
func (r *Registry) Running(ctx context.Context) []Service {
	var out []Service
	for _, svc := range r.All() {
		if svc.IsRunning(ctx) {
			out = append(out, svc)
		}
	}
	return out
}

// CountServices probes every service once and aggregates the totals.
func (r *Registry) CountServices(ctx context.Context) Counts {
	counts := Counts{}
	for _, svc := range r.All() {
		counts.Total++
		if svc.IsInstalled(ctx) {
			counts.Installed++
		}
		if svc.IsRunning(ctx) {
			counts.Running++
		}
	}
	return counts
}
