package orchestrator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/task"
)

// subscriberBuffer is the per-subscriber channel capacity. Publishing
// never blocks; a subscriber that falls this far behind loses events.
const subscriberBuffer = 16

// EventBus fans task lifecycle events out to per-task subscribers.
// Events are transient: subscribers only see events published while
// they are attached.
type EventBus struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan task.Event
	nextID int
	logger *zap.Logger
}

// NewEventBus builds an empty bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subs:   make(map[string]map[int]chan task.Event),
		logger: logger.With(zap.String("component", "event_bus")),
	}
}

// Subscribe attaches to a task's event feed. The returned cancel
// function detaches and closes the channel; it is safe to call twice.
func (b *EventBus) Subscribe(taskID string) (<-chan task.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan task.Event, subscriberBuffer)
	id := b.nextID
	b.nextID++

	if b.subs[taskID] == nil {
		b.subs[taskID] = make(map[int]chan task.Event)
	}
	b.subs[taskID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[taskID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.subs, taskID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its task. Delivery
// is best-effort: slow subscribers drop events rather than block the
// orchestrator.
func (b *EventBus) Publish(ev task.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.TaskID] {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping event for slow subscriber",
				zap.String("task_id", ev.TaskID),
				zap.String("event", string(ev.Type)))
		}
	}
}

// Subscribers returns how many subscribers a task currently has.
func (b *EventBus) Subscribers(taskID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[taskID])
}

func newEvent(t *task.Task, evType task.EventType, message string) task.Event {
	return task.Event{
		TaskID:    t.ID,
		Type:      evType,
		Agent:     t.Agent,
		Status:    t.Status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func newStepEvent(t *task.Task, s *task.Step, evType task.EventType, message string) task.Event {
	ev := newEvent(t, evType, message)
	ev.StepID = s.ID
	ev.Agent = s.Agent
	return ev
}
