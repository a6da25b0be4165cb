package authz

import (
	"testing"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
)

func TestRouteMap_DefaultRoutes(t *testing.T) {
	t.Parallel()

	m := NewRouteMap()
	want := map[string]string{
		a2a.MethodMessageSend:       "a2a.message_authorization",
		a2a.MethodMessageStream:     "a2a.message_authorization",
		a2a.MethodTasksGet:          "a2a.task_access",
		a2a.MethodTasksCancel:       "a2a.task_modification",
		a2a.MethodTasksResubscribe:  "a2a.task_access",
		a2a.MethodPushConfigSet:     "a2a.notification_management",
		a2a.MethodPushConfigGet:     "a2a.notification_access",
		a2a.MethodPushConfigList:    "a2a.notification_access",
		a2a.MethodPushConfigDelete:  "a2a.notification_management",
		a2a.MethodAgentCard:         "a2a.agent_discovery",
		a2a.MethodAgentCapabilities: "a2a.capability_access",
	}
	for method, path := range want {
		if got := m.Resolve(method); got != path {
			t.Errorf("Resolve(%q) = %q, want %q", method, got, path)
		}
	}
}

func TestRouteMap_UnknownMethodFallsBack(t *testing.T) {
	t.Parallel()

	m := NewRouteMap()
	if got := m.Resolve("tasks/frobnicate"); got != DefaultPolicyPath {
		t.Errorf("Resolve(unknown) = %q, want %q", got, DefaultPolicyPath)
	}
}

func TestRouteMap_AddRemove(t *testing.T) {
	t.Parallel()

	m := NewRouteMap()
	m.Add("custom/op", "a2a.custom_policy")
	if got := m.Resolve("custom/op"); got != "a2a.custom_policy" {
		t.Errorf("Resolve after Add = %q", got)
	}

	m.Remove("custom/op")
	if got := m.Resolve("custom/op"); got != DefaultPolicyPath {
		t.Errorf("Resolve after Remove = %q, want default", got)
	}
}

func TestRouteMap_AllReturnsCopy(t *testing.T) {
	t.Parallel()

	m := NewRouteMap()
	all := m.All()
	all[a2a.MethodTasksGet] = "mutated"

	if got := m.Resolve(a2a.MethodTasksGet); got != "a2a.task_access" {
		t.Errorf("mutating All() result changed the map: Resolve = %q", got)
	}
}

func TestNewRouteMapWith_CustomDefault(t *testing.T) {
	t.Parallel()

	m := NewRouteMapWith(map[string]string{"x/y": "a2a.x"}, "a2a.fallback")
	if got := m.Resolve("x/y"); got != "a2a.x" {
		t.Errorf("Resolve(x/y) = %q", got)
	}
	if got := m.Resolve(a2a.MethodTasksGet); got != "a2a.fallback" {
		t.Errorf("Resolve with custom default = %q, want a2a.fallback", got)
	}
}
