package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
	"github.com/filiprab/a2a-opa/internal/domain/audit"
	"github.com/filiprab/a2a-opa/internal/domain/authz"
	"github.com/filiprab/a2a-opa/internal/port/inbound"
	"github.com/filiprab/a2a-opa/internal/port/outbound"
)

// tracerName identifies the enforcement layer's tracer.
const tracerName = "github.com/filiprab/a2a-opa/internal/service"

// defaultDenyReason is injected when the engine denies without giving any
// violation reason, so ViolationError.Violations is never empty.
const defaultDenyReason = "Request denied by policy"

// MessageParamsFilter rewrites message parameters before delegation.
// Extension point; the default passes parameters through unchanged.
type MessageParamsFilter func(ctx context.Context, params a2a.MessageSendParams, ac *authz.Context) a2a.MessageSendParams

// EventFilter filters one stream event. Returning false suppresses the
// event without closing the stream.
type EventFilter func(ctx context.Context, event a2a.Event) (a2a.Event, bool)

// TaskFilter post-processes a task response. Extension point; the default
// passes the task through unchanged.
type TaskFilter func(ctx context.Context, task *a2a.Task) *a2a.Task

// EnforcementService wraps a RequestHandler with authorize-then-delegate
// semantics: every operation builds an authorization context, evaluates the
// routed policy, and either delegates to the wrapped handler or raises a
// *authz.ViolationError. It implements inbound.RequestHandler.
type EnforcementService struct {
	next      inbound.RequestHandler
	engine    outbound.PolicyEngine
	extractor *ContextExtractor
	routes    *authz.RouteMap

	auditStore     audit.Store
	auditDecisions bool
	failOpen       bool

	paramsFilter MessageParamsFilter
	eventFilter  EventFilter
	taskFilter   TaskFilter

	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

var _ inbound.RequestHandler = (*EnforcementService)(nil)

// EnforcementOption is a functional option for configuring
// EnforcementService.
type EnforcementOption func(*EnforcementService)

// WithRouteMap sets the operation-to-policy route map. Defaults to the
// standard routes.
func WithRouteMap(routes *authz.RouteMap) EnforcementOption {
	return func(s *EnforcementService) { s.routes = routes }
}

// WithAuditStore enables decision auditing to the given store.
func WithAuditStore(store audit.Store) EnforcementOption {
	return func(s *EnforcementService) {
		s.auditStore = store
		s.auditDecisions = true
	}
}

// WithFailOpen configures the service to delegate when policy evaluation
// fails instead of denying. The default is fail-closed.
func WithFailOpen() EnforcementOption {
	return func(s *EnforcementService) { s.failOpen = true }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) EnforcementOption {
	return func(s *EnforcementService) { s.metrics = m }
}

// WithMessageParamsFilter sets the pre-delegation message filter.
func WithMessageParamsFilter(f MessageParamsFilter) EnforcementOption {
	return func(s *EnforcementService) { s.paramsFilter = f }
}

// WithEventFilter sets the per-event stream filter.
func WithEventFilter(f EventFilter) EnforcementOption {
	return func(s *EnforcementService) { s.eventFilter = f }
}

// WithTaskFilter sets the task response filter.
func WithTaskFilter(f TaskFilter) EnforcementOption {
	return func(s *EnforcementService) { s.taskFilter = f }
}

// WithEnforcementLogger sets the logger. Defaults to slog.Default().
func WithEnforcementLogger(logger *slog.Logger) EnforcementOption {
	return func(s *EnforcementService) { s.logger = logger }
}

// NewEnforcementService creates an enforcement wrapper around next.
func NewEnforcementService(
	next inbound.RequestHandler,
	engine outbound.PolicyEngine,
	extractor *ContextExtractor,
	opts ...EnforcementOption,
) *EnforcementService {
	s := &EnforcementService{
		next:       next,
		engine:     engine,
		extractor:  extractor,
		routes:     authz.NewRouteMap(),
		auditStore: audit.NopStore{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Routes returns the service's route map for runtime administration.
func (s *EnforcementService) Routes() *authz.RouteMap {
	return s.routes
}

// OnMessageSend handles message/send with policy enforcement.
func (s *EnforcementService) OnMessageSend(ctx context.Context, params a2a.MessageSendParams, call *a2a.CallContext) (*a2a.SendResult, error) {
	ac, err := s.authorize(ctx, a2a.MethodMessageSend, params, call)
	if err != nil {
		return nil, err
	}
	result, err := s.next.OnMessageSend(ctx, s.filterParams(ctx, params, ac), call)
	if err != nil {
		return nil, err
	}
	return s.filterSendResult(ctx, result), nil
}

// OnMessageSendStream handles message/stream: one policy check before the
// stream starts, then per-event filtering for its lifetime.
func (s *EnforcementService) OnMessageSendStream(ctx context.Context, params a2a.MessageSendParams, call *a2a.CallContext) (<-chan a2a.StreamItem, error) {
	ac, err := s.authorize(ctx, a2a.MethodMessageStream, params, call)
	if err != nil {
		return nil, err
	}
	upstream, err := s.next.OnMessageSendStream(ctx, s.filterParams(ctx, params, ac), call)
	if err != nil {
		return nil, err
	}
	return s.forwardFiltered(ctx, upstream), nil
}

// OnGetTask handles tasks/get with policy enforcement.
func (s *EnforcementService) OnGetTask(ctx context.Context, params a2a.TaskQueryParams, call *a2a.CallContext) (*a2a.Task, error) {
	if _, err := s.authorize(ctx, a2a.MethodTasksGet, params, call); err != nil {
		return nil, err
	}
	task, err := s.next.OnGetTask(ctx, params, call)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}
	if s.taskFilter != nil {
		return s.taskFilter(ctx, task), nil
	}
	return task, nil
}

// OnCancelTask handles tasks/cancel with policy enforcement.
func (s *EnforcementService) OnCancelTask(ctx context.Context, params a2a.TaskIDParams, call *a2a.CallContext) (*a2a.Task, error) {
	if _, err := s.authorize(ctx, a2a.MethodTasksCancel, params, call); err != nil {
		return nil, err
	}
	return s.next.OnCancelTask(ctx, params, call)
}

// OnResubscribeToTask handles tasks/resubscribe with policy enforcement and
// per-event filtering.
func (s *EnforcementService) OnResubscribeToTask(ctx context.Context, params a2a.TaskIDParams, call *a2a.CallContext) (<-chan a2a.StreamItem, error) {
	if _, err := s.authorize(ctx, a2a.MethodTasksResubscribe, params, call); err != nil {
		return nil, err
	}
	upstream, err := s.next.OnResubscribeToTask(ctx, params, call)
	if err != nil {
		return nil, err
	}
	return s.forwardFiltered(ctx, upstream), nil
}

// OnSetTaskPushConfig handles pushNotificationConfig/set with policy
// enforcement.
func (s *EnforcementService) OnSetTaskPushConfig(ctx context.Context, params a2a.TaskPushConfig, call *a2a.CallContext) (*a2a.TaskPushConfig, error) {
	if _, err := s.authorize(ctx, a2a.MethodPushConfigSet, params, call); err != nil {
		return nil, err
	}
	return s.next.OnSetTaskPushConfig(ctx, params, call)
}

// OnGetTaskPushConfig handles pushNotificationConfig/get with policy
// enforcement.
func (s *EnforcementService) OnGetTaskPushConfig(ctx context.Context, params a2a.GetTaskPushConfigParams, call *a2a.CallContext) (*a2a.TaskPushConfig, error) {
	if _, err := s.authorize(ctx, a2a.MethodPushConfigGet, params, call); err != nil {
		return nil, err
	}
	return s.next.OnGetTaskPushConfig(ctx, params, call)
}

// OnListTaskPushConfig handles pushNotificationConfig/list with policy
// enforcement.
func (s *EnforcementService) OnListTaskPushConfig(ctx context.Context, params a2a.ListTaskPushConfigParams, call *a2a.CallContext) ([]a2a.TaskPushConfig, error) {
	if _, err := s.authorize(ctx, a2a.MethodPushConfigList, params, call); err != nil {
		return nil, err
	}
	return s.next.OnListTaskPushConfig(ctx, params, call)
}

// OnDeleteTaskPushConfig handles pushNotificationConfig/delete with policy
// enforcement.
func (s *EnforcementService) OnDeleteTaskPushConfig(ctx context.Context, params a2a.DeleteTaskPushConfigParams, call *a2a.CallContext) error {
	if _, err := s.authorize(ctx, a2a.MethodPushConfigDelete, params, call); err != nil {
		return err
	}
	return s.next.OnDeleteTaskPushConfig(ctx, params, call)
}

// authorize runs the enforcement pipeline for one call: extract context,
// resolve the policy route, evaluate, and interpret the verdict. It returns
// the extracted context on allow and a *authz.ViolationError on deny or on
// evaluation failure under fail-closed.
func (s *EnforcementService) authorize(ctx context.Context, method string, params any, call *a2a.CallContext) (*authz.Context, error) {
	ctx, span := s.tracer.Start(ctx, "a2aopa.authorize",
		trace.WithAttributes(attribute.String("a2a.method", method)))
	defer span.End()

	start := time.Now()
	ac := s.extractor.Extract(method, params, call, nil)
	policyPath := s.routes.Resolve(method)
	span.SetAttributes(attribute.String("policy.path", policyPath))

	input := ac.ToPolicyInput()
	decision, err := s.engine.Evaluate(ctx, policyPath, input)
	latency := time.Since(start)

	if err != nil {
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.EngineErrorsTotal.Inc()
		}
		if s.failOpen {
			span.SetAttributes(attribute.String("policy.outcome", audit.DecisionError))
			s.logger.Warn("policy evaluation failed, failing open",
				"method", method,
				"policy_path", policyPath,
				"error", err)
			s.observe(ac.Operation, audit.DecisionError, latency)
			s.record(ctx, method, ac, policyPath, audit.DecisionError, "", nil, input, latency)
			return ac, nil
		}
		span.SetAttributes(attribute.String("policy.outcome", audit.DecisionDeny))
		s.observe(ac.Operation, audit.DecisionDeny, latency)
		s.record(ctx, method, ac, policyPath, audit.DecisionDeny, "", nil, input, latency)
		return nil, &authz.ViolationError{
			PolicyPath: policyPath,
			Violations: []string{"policy evaluation failed"},
			Decision:   map[string]any{},
			Context:    map[string]any{},
			Err:        err,
		}
	}

	if !decision.Allow {
		violations := decision.Violations
		if len(violations) == 0 {
			violations = []string{defaultDenyReason}
		}
		span.SetAttributes(attribute.String("policy.outcome", audit.DecisionDeny))
		s.observe(ac.Operation, audit.DecisionDeny, latency)
		s.record(ctx, method, ac, policyPath, audit.DecisionDeny, decision.DecisionID, violations, input, latency)
		return nil, &authz.ViolationError{
			PolicyPath: policyPath,
			Violations: violations,
			Decision:   decision.Result,
			Context:    input,
		}
	}

	span.SetAttributes(attribute.String("policy.outcome", audit.DecisionAllow))
	s.observe(ac.Operation, audit.DecisionAllow, latency)
	s.record(ctx, method, ac, policyPath, audit.DecisionAllow, decision.DecisionID, nil, input, latency)
	return ac, nil
}

// observe updates the decision metrics.
func (s *EnforcementService) observe(operation, outcome string, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.DecisionsTotal.WithLabelValues(operation, outcome).Inc()
	s.metrics.EvaluationDuration.WithLabelValues(operation).Observe(latency.Seconds())
}

// record writes one audit entry. Audit failures are logged, never raised:
// auditing must not take down request processing.
func (s *EnforcementService) record(
	ctx context.Context,
	method string,
	ac *authz.Context,
	policyPath, outcome, decisionID string,
	violations []string,
	input map[string]any,
	latency time.Duration,
) {
	if !s.auditDecisions {
		return
	}
	rec := audit.Record{
		Timestamp:   time.Now().UTC(),
		Operation:   ac.Operation,
		Method:      method,
		Decision:    outcome,
		PolicyPath:  policyPath,
		RequesterID: ac.Requester.AgentID,
		DecisionID:  decisionID,
		Violations:  violations,
		InputDigest: audit.InputDigest(input),
		LatencyMs:   latency.Milliseconds(),
	}
	if err := s.auditStore.Append(ctx, rec); err != nil {
		s.logger.Error("audit append failed", "method", method, "error", err)
	}
	s.logger.Info("policy decision",
		"operation", rec.Operation,
		"decision", rec.Decision,
		"policy_path", rec.PolicyPath,
		"requester", rec.RequesterID)
}

// filterParams applies the message parameter filter extension point.
func (s *EnforcementService) filterParams(ctx context.Context, params a2a.MessageSendParams, ac *authz.Context) a2a.MessageSendParams {
	if s.paramsFilter != nil {
		return s.paramsFilter(ctx, params, ac)
	}
	return params
}

// filterSendResult applies the response filter extension point. An empty
// result collapses to nil.
func (s *EnforcementService) filterSendResult(ctx context.Context, result *a2a.SendResult) *a2a.SendResult {
	if result.Empty() {
		return nil
	}
	if s.taskFilter != nil && result.Task != nil {
		filtered := *result
		filtered.Task = s.taskFilter(ctx, result.Task)
		return &filtered
	}
	return result
}

// forwardFiltered owns the stream forwarding loop: it pulls from the
// wrapped handler's stream, applies the event filter, and pushes surviving
// items downstream. Upstream errors pass through unchanged; cancellation of
// ctx stops the loop and closes the downstream channel.
func (s *EnforcementService) forwardFiltered(ctx context.Context, upstream <-chan a2a.StreamItem) <-chan a2a.StreamItem {
	out := make(chan a2a.StreamItem)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-upstream:
				if !ok {
					return
				}
				if item.Err == nil && s.eventFilter != nil {
					event, keep := s.eventFilter(ctx, item.Event)
					if !keep {
						if s.metrics != nil {
							s.metrics.StreamEventsDropped.Inc()
						}
						continue
					}
					item.Event = event
				}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
