package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/logger"
)

// ErrCycle is returned when service dependencies form a loop
var ErrCycle = errors.New("circular service dependency")

// Hub owns service instances and drives their lifecycle in dependency order
type Hub struct {
	mu       sync.RWMutex
	services map[string]Service
	sorted   []string // Topological order, computed on InitAll
	started  []string // Started services, for rollback and StopAll
	log      *logrus.Entry
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		services: make(map[string]Service),
		log:      logger.For("service"),
	}
}

// Register adds a service, invalidating the cached order
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, exists := h.services[name]; exists {
		return fmt.Errorf("service already registered: %s", name)
	}
	h.services[name] = svc
	h.sorted = nil
	return nil
}

// Get retrieves a service by name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// MustGet retrieves a service and casts it to T
// Panics if the service is missing or of another type
func MustGet[T any](h *Hub, name string) T {
	svc, ok := h.Get(name)
	if !ok {
		panic(fmt.Sprintf("service not found: %s", name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s: type mismatch, got %T", name, svc))
	}
	return typed
}

// Order returns the resolved initialization order
func (h *Hub) Order() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.resolve(); err != nil {
		return nil, err
	}
	return append([]string(nil), h.sorted...), nil
}

// InitAll calls Init on every service in dependency order with the same args
// On failure already-initialized services are stopped in reverse order
func (h *Hub) InitAll(args ...any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resolve(); err != nil {
		return err
	}

	var initialized []string
	for _, name := range h.sorted {
		if err := h.services[name].Init(args...); err != nil {
			h.rollback(initialized)
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
		initialized = append(initialized, name)
	}
	h.log.WithField("order", h.sorted).Debug("Services initialized")
	return nil
}

// StartAll starts enabled services in dependency order
// On failure already-started services are stopped in reverse order
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resolve(); err != nil {
		return err
	}

	h.started = nil
	for _, name := range h.sorted {
		svc := h.services[name]
		if e, ok := svc.(Enabler); ok && !e.Enabled() {
			h.log.WithField("service", name).Debug("Service disabled, not started")
			continue
		}
		if err := svc.Start(); err != nil {
			h.rollback(h.started)
			h.started = nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
	}
	h.log.WithField("started", h.started).Info("Services started")
	return nil
}

// StopAll stops started services in reverse order
// Errors are logged; every started service gets Stop called
func (h *Hub) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rollback(h.started)
	h.started = nil
}

func (h *Hub) rollback(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		if err := h.services[names[i]].Stop(); err != nil {
			h.log.WithError(err).WithField("service", names[i]).Warn("Service stop failed")
		}
	}
}

// resolve computes the order with Kahn's algorithm, ties broken by name
func (h *Hub) resolve() error {
	if h.sorted != nil {
		return nil
	}

	inDegree := make(map[string]int, len(h.services))
	dependents := make(map[string][]string)
	for name, svc := range h.services {
		inDegree[name] += 0
		for _, dep := range svc.Dependencies() {
			if _, exists := h.services[dep]; !exists {
				return fmt.Errorf("service %s depends on unregistered service: %s", name, dep)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(h.services))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		var ready []string
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(result) != len(h.services) {
		return ErrCycle
	}
	h.sorted = result
	return nil
}

// Names returns registered service names, sorted
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
