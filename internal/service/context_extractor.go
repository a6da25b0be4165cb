package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
	"github.com/filiprab/a2a-opa/internal/domain/authz"
)

// agentIDHeader is the transport header carrying the requesting agent's ID.
const agentIDHeader = "X-Agent-ID"

// agentIDMetadataKey is the call metadata key carrying the agent ID when no
// header is present.
const agentIDMetadataKey = "agent_id"

// defaultSensitiveTerms are the content patterns that mark a message as
// containing sensitive data. Matching is case-insensitive.
var defaultSensitiveTerms = []string{
	"SECRET", "CONFIDENTIAL", "PASSWORD", "TOKEN", "API_KEY",
	"PRIVATE_KEY", "SSN", "CREDIT_CARD",
}

// internalTerms mark content as internal when no sensitive term matched.
var internalTerms = []string{"INTERNAL", "PRIVATE"}

// AgentResolver resolves the requesting agent's identity from a call
// context. Implementations must not perform network access.
type AgentResolver interface {
	ResolveAgent(call *a2a.CallContext) authz.AgentInfo
}

// DirectoryResolver resolves agents against an AgentDirectory: a known ID
// yields the full registered info, an unknown ID yields a minimal AgentInfo
// with only the ID set, and a missing ID yields an empty AgentInfo.
type DirectoryResolver struct {
	Directory *AgentDirectory
}

// ResolveAgent implements AgentResolver. The agent ID is read from the
// X-Agent-ID header first, then from the agent_id metadata entry.
func (r DirectoryResolver) ResolveAgent(call *a2a.CallContext) authz.AgentInfo {
	agentID := call.Header(agentIDHeader)
	if agentID == "" {
		agentID = call.MetadataString(agentIDMetadataKey)
	}
	if agentID == "" {
		return authz.AgentInfo{}
	}
	if r.Directory != nil {
		if info, ok := r.Directory.Get(agentID); ok {
			return info
		}
	}
	return authz.AgentInfo{AgentID: agentID}
}

// ContextExtractor builds the per-call authorization context from an
// inbound protocol call. Extraction is deterministic and side-effect-free
// aside from reading the injected resolver and directory.
type ContextExtractor struct {
	resolver       AgentResolver
	sensitiveTerms []string
	environment    map[string]any
	logger         *slog.Logger
	now            func() time.Time
}

// ExtractorOption is a functional option for configuring ContextExtractor.
type ExtractorOption func(*ContextExtractor)

// WithSensitiveTerms replaces the default sensitive-content patterns.
func WithSensitiveTerms(terms []string) ExtractorOption {
	return func(e *ContextExtractor) { e.sensitiveTerms = terms }
}

// WithEnvironment sets static environment data included in every context.
func WithEnvironment(env map[string]any) ExtractorOption {
	return func(e *ContextExtractor) { e.environment = env }
}

// WithExtractorLogger sets the logger. Defaults to slog.Default().
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *ContextExtractor) { e.logger = logger }
}

// NewContextExtractor creates an extractor using the given resolver. A nil
// resolver resolves every call to an empty requester.
func NewContextExtractor(resolver AgentResolver, opts ...ExtractorOption) *ContextExtractor {
	e := &ContextExtractor{
		resolver:       resolver,
		sensitiveTerms: defaultSensitiveTerms,
		environment:    map[string]any{},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract builds the authorization context for one call. params carries the
// operation's parameter struct; additional is merged into the context's
// free-form data map.
func (e *ContextExtractor) Extract(method string, params any, call *a2a.CallContext, additional map[string]any) *authz.Context {
	requester := authz.AgentInfo{}
	if e.resolver != nil {
		requester = e.resolver.ResolveAgent(call)
	}

	data := map[string]any{}
	for k, v := range additional {
		data[k] = v
	}

	ac := &authz.Context{
		Requester:   requester,
		Target:      authz.AgentInfo{},
		Request:     e.requestInfo(method, call),
		Operation:   method,
		Data:        data,
		Environment: e.environment,
	}

	e.enrichForMethod(method, params, ac)

	e.logger.Debug("extracted authorization context",
		"method", method,
		"resource", ac.Resource,
		"requester", ac.Requester.AgentID)
	return ac
}

func (e *ContextExtractor) requestInfo(method string, call *a2a.CallContext) authz.RequestInfo {
	info := authz.RequestInfo{
		Method:    method,
		Timestamp: e.now().UTC(),
		Headers:   map[string]string{},
	}
	if call != nil {
		info.RemoteAddr = call.RemoteAddr
		info.UserAgent = call.UserAgent
		if info.UserAgent == "" {
			info.UserAgent = call.Header("User-Agent")
		}
		for k, v := range call.Headers {
			info.Headers[k] = v
		}
	}
	return info
}

// enrichForMethod adds the method-specific message, task, and resource
// details to the context.
func (e *ContextExtractor) enrichForMethod(method string, params any, ac *authz.Context) {
	switch method {
	case a2a.MethodMessageSend, a2a.MethodMessageStream:
		p, ok := params.(a2a.MessageSendParams)
		if !ok {
			return
		}
		info := e.ClassifyMessage(p.Message)
		ac.Message = &info
		ac.Resource = authz.ResourceMessage
		if p.Message.TaskID != "" {
			ac.Task = &authz.TaskInfo{TaskID: p.Message.TaskID}
		}

	case a2a.MethodTasksGet:
		if p, ok := params.(a2a.TaskQueryParams); ok {
			ac.Task = &authz.TaskInfo{TaskID: p.TaskID}
			ac.Resource = authz.ResourceTask
		}

	case a2a.MethodTasksCancel:
		if p, ok := params.(a2a.TaskIDParams); ok {
			ac.Task = &authz.TaskInfo{TaskID: p.TaskID}
			ac.Resource = authz.ResourceTask
			ac.Operation = authz.OperationTaskCancel
		}

	default:
		if strings.HasPrefix(method, "tasks/pushNotificationConfig") {
			ac.Resource = authz.ResourcePushNotification
			if id := pushConfigTaskID(params); id != "" {
				ac.Task = &authz.TaskInfo{TaskID: id}
			}
		}
	}
}

// pushConfigTaskID pulls the task ID out of any of the push notification
// config parameter shapes.
func pushConfigTaskID(params any) string {
	switch p := params.(type) {
	case a2a.TaskPushConfig:
		return p.TaskID
	case a2a.GetTaskPushConfigParams:
		return p.TaskID
	case a2a.ListTaskPushConfigParams:
		return p.TaskID
	case a2a.DeleteTaskPushConfigParams:
		return p.TaskID
	default:
		return ""
	}
}

// ClassifyMessage builds the policy-facing view of a message: the
// concatenated text content, part descriptors, and the sensitivity
// classification.
func (e *ContextExtractor) ClassifyMessage(msg a2a.Message) authz.MessageInfo {
	info := authz.MessageInfo{
		MessageID:          msg.MessageID,
		Metadata:           msg.Metadata,
		DataClassification: authz.ClassificationPublic,
	}

	var textParts []string
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case a2a.TextPart:
			textParts = append(textParts, p.Text)
			info.Parts = append(info.Parts, authz.PartInfo{
				Kind:    string(a2a.PartKindText),
				Content: p.Text,
			})
		case a2a.FilePart:
			info.Parts = append(info.Parts, authz.PartInfo{
				Kind:     string(a2a.PartKindFile),
				Filename: p.Name,
				MimeType: p.MimeType,
			})
		case a2a.DataPart:
			info.Parts = append(info.Parts, authz.PartInfo{
				Kind:     string(a2a.PartKindData),
				MimeType: p.MimeType,
				Payload:  "<structured_data>",
			})
		}
	}

	info.Content = strings.Join(textParts, " ")
	if info.Content != "" {
		info.ContainsSensitiveData = e.containsSensitiveData(info.Content)
		info.DataClassification = e.classify(info.Content)
	}
	return info
}

func (e *ContextExtractor) containsSensitiveData(content string) bool {
	upper := strings.ToUpper(content)
	for _, term := range e.sensitiveTerms {
		if strings.Contains(upper, term) {
			return true
		}
	}
	return false
}

func (e *ContextExtractor) classify(content string) string {
	if e.containsSensitiveData(content) {
		return authz.ClassificationConfidential
	}
	upper := strings.ToUpper(content)
	for _, term := range internalTerms {
		if strings.Contains(upper, term) {
			return authz.ClassificationInternal
		}
	}
	return authz.ClassificationPublic
}
