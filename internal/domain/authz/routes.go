package authz

import (
	"sync"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
)

// DefaultPolicyPath is the fallback policy for operations without an
// explicit route.
const DefaultPolicyPath = "a2a.default_authorization"

// defaultRoutes maps each wire method to its policy path. The path strings
// are load-bearing: externally authored policy bundles address these exact
// packages, so changing them breaks deployed policies.
func defaultRoutes() map[string]string {
	return map[string]string{
		a2a.MethodMessageSend:   "a2a.message_authorization",
		a2a.MethodMessageStream: "a2a.message_authorization",

		a2a.MethodTasksGet:         "a2a.task_access",
		a2a.MethodTasksCancel:      "a2a.task_modification",
		a2a.MethodTasksResubscribe: "a2a.task_access",

		a2a.MethodPushConfigSet:    "a2a.notification_management",
		a2a.MethodPushConfigGet:    "a2a.notification_access",
		a2a.MethodPushConfigList:   "a2a.notification_access",
		a2a.MethodPushConfigDelete: "a2a.notification_management",

		a2a.MethodAgentCard:         "a2a.agent_discovery",
		a2a.MethodAgentCapabilities: "a2a.capability_access",
	}
}

// RouteMap maps protocol operation names to policy paths. Lookups fall back
// to the default path. Mutation goes through Add/Remove only; the map is
// never handed out by reference.
type RouteMap struct {
	mu          sync.RWMutex
	routes      map[string]string
	defaultPath string
}

// NewRouteMap creates a RouteMap seeded with the default routes.
func NewRouteMap() *RouteMap {
	return &RouteMap{
		routes:      defaultRoutes(),
		defaultPath: DefaultPolicyPath,
	}
}

// NewRouteMapWith creates a RouteMap with explicit routes and default path.
// A nil routes map seeds the defaults; an empty defaultPath keeps
// DefaultPolicyPath.
func NewRouteMapWith(routes map[string]string, defaultPath string) *RouteMap {
	m := NewRouteMap()
	if routes != nil {
		m.routes = make(map[string]string, len(routes))
		for method, path := range routes {
			m.routes[method] = path
		}
	}
	if defaultPath != "" {
		m.defaultPath = defaultPath
	}
	return m
}

// Resolve returns the policy path for the given method, or the default path
// when no explicit route exists.
func (m *RouteMap) Resolve(method string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path, ok := m.routes[method]; ok {
		return path
	}
	return m.defaultPath
}

// Add sets or replaces the route for a method.
func (m *RouteMap) Add(method, policyPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method] = policyPath
}

// Remove deletes the route for a method, reverting it to the default path.
func (m *RouteMap) Remove(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.routes, method)
}

// All returns a copy of the current routes.
func (m *RouteMap) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.routes))
	for method, path := range m.routes {
		out[method] = path
	}
	return out
}
