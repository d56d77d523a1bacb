package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// FrameBatcher collects visual tasks and runs them together once per frame.
// request is called once for each batch that needs a frame; with a nil
// request tasks run immediately.
type FrameBatcher struct {
	queue     []func()
	requested bool
	request   func()
	log       *zap.Logger
}

func NewFrameBatcher(request func(), log *zap.Logger) *FrameBatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &FrameBatcher{request: request, log: log}
}

func (b *FrameBatcher) Schedule(task func()) {
	if task == nil {
		return
	}
	if b.request == nil {
		b.run(task)
		return
	}
	b.queue = append(b.queue, task)
	if b.requested {
		return
	}
	b.requested = true
	b.request()
}

// Flush runs every queued task and reports how many ran. The queue is
// detached before running so a task that schedules lands in the next batch.
func (b *FrameBatcher) Flush() int {
	tasks := b.queue
	b.queue = nil
	b.requested = false
	for _, task := range tasks {
		b.run(task)
	}
	return len(tasks)
}

func (b *FrameBatcher) Pending() int { return len(b.queue) }

func (b *FrameBatcher) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("frame_task_failed", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}
