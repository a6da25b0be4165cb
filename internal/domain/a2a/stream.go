package a2a

// Event is a streaming protocol event. The implementations are the status
// and artifact update events plus Message and Task, matching the wire
// protocol's event union.
type Event interface {
	eventKind() string
}

// TaskStatusUpdateEvent signals a task state transition on a stream.
type TaskStatusUpdateEvent struct {
	TaskID string     `json:"taskId"`
	Status TaskStatus `json:"status"`
	Final  bool       `json:"final,omitempty"`
}

func (TaskStatusUpdateEvent) eventKind() string { return "status-update" }

// TaskArtifactUpdateEvent delivers a task artifact on a stream.
type TaskArtifactUpdateEvent struct {
	TaskID   string   `json:"taskId"`
	Artifact Artifact `json:"artifact"`
}

func (TaskArtifactUpdateEvent) eventKind() string { return "artifact-update" }

func (Message) eventKind() string { return "message" }
func (Task) eventKind() string    { return "task" }

// StreamItem is one element of an event stream: either an event or a
// terminal error. A stream producer closes its channel after sending an
// item with a non-nil Err.
type StreamItem struct {
	Event Event
	Err   error
}
