// Package inbound defines the inbound ports: the interfaces through which
// protocol requests enter the application core.
package inbound

import (
	"context"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
)

// RequestHandler handles the protocol operations the enforcement layer
// intercepts, one method per operation. The enforcement service implements
// this interface and delegates to a wrapped implementation, so delegation is
// checked at compile time rather than through dynamic proxying.
//
// Streaming operations return a receive-only channel of stream items. The
// producer owns the channel: it closes it when the stream ends, sending a
// final item with a non-nil Err on abnormal termination. Consumers cancel by
// cancelling ctx.
type RequestHandler interface {
	// OnMessageSend handles message/send.
	OnMessageSend(ctx context.Context, params a2a.MessageSendParams, call *a2a.CallContext) (*a2a.SendResult, error)

	// OnMessageSendStream handles message/stream.
	OnMessageSendStream(ctx context.Context, params a2a.MessageSendParams, call *a2a.CallContext) (<-chan a2a.StreamItem, error)

	// OnGetTask handles tasks/get. Returns nil when the task does not exist.
	OnGetTask(ctx context.Context, params a2a.TaskQueryParams, call *a2a.CallContext) (*a2a.Task, error)

	// OnCancelTask handles tasks/cancel.
	OnCancelTask(ctx context.Context, params a2a.TaskIDParams, call *a2a.CallContext) (*a2a.Task, error)

	// OnResubscribeToTask handles tasks/resubscribe.
	OnResubscribeToTask(ctx context.Context, params a2a.TaskIDParams, call *a2a.CallContext) (<-chan a2a.StreamItem, error)

	// OnSetTaskPushConfig handles tasks/pushNotificationConfig/set.
	OnSetTaskPushConfig(ctx context.Context, params a2a.TaskPushConfig, call *a2a.CallContext) (*a2a.TaskPushConfig, error)

	// OnGetTaskPushConfig handles tasks/pushNotificationConfig/get.
	OnGetTaskPushConfig(ctx context.Context, params a2a.GetTaskPushConfigParams, call *a2a.CallContext) (*a2a.TaskPushConfig, error)

	// OnListTaskPushConfig handles tasks/pushNotificationConfig/list.
	OnListTaskPushConfig(ctx context.Context, params a2a.ListTaskPushConfigParams, call *a2a.CallContext) ([]a2a.TaskPushConfig, error)

	// OnDeleteTaskPushConfig handles tasks/pushNotificationConfig/delete.
	OnDeleteTaskPushConfig(ctx context.Context, params a2a.DeleteTaskPushConfigParams, call *a2a.CallContext) error
}
