package corethread

// CommandQueue is an ordered buffer of pending commands.
//
// Playback order equals enqueue order; no command is reordered, dropped,
// or replayed twice. The container itself is not safe for concurrent use:
// synchronization lives at the owner. The dispatcher guards its shared
// queue with the submission lock (the multi-producer flavor), while each
// Accessor owns an unguarded queue touched only by its producer (the
// single-producer flavor).
type CommandQueue struct {
	cmds []queuedCommand
}

// NewCommandQueue creates an empty command queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{
		cmds: make([]queuedCommand, 0, 32),
	}
}

// Queue appends a command. Pass InvalidNotifyID when no completion
// notification is requested.
func (q *CommandQueue) Queue(fn Command, notify NotifyID) {
	q.cmds = append(q.cmds, queuedCommand{fn: fn, notify: notify})
}

// QueueReturn appends a result-producing command and returns its handle.
func (q *CommandQueue) QueueReturn(fn ReturnCommand, notify NotifyID) *AsyncOp {
	op := &AsyncOp{}
	q.cmds = append(q.cmds, queuedCommand{ret: fn, op: op, notify: notify})
	return op
}

// append merges an already-flushed batch, preserving its order.
func (q *CommandQueue) append(batch []queuedCommand) {
	q.cmds = append(q.cmds, batch...)
}

// Flush detaches and returns the entire pending batch, leaving the queue
// empty. The caller may play the batch back without holding the owner's
// lock; producers are never blocked by playback duration.
func (q *CommandQueue) Flush() []queuedCommand {
	batch := q.cmds
	q.cmds = make([]queuedCommand, 0, 32)
	return batch
}

// Empty returns true if no commands are pending.
func (q *CommandQueue) Empty() bool {
	return len(q.cmds) == 0
}

// Len returns the number of pending commands.
func (q *CommandQueue) Len() int {
	return len(q.cmds)
}

// Playback invokes every command of a flushed batch in order. After each
// command carrying a valid NotifyID has been invoked, onComplete is
// called with that id. onComplete may be nil.
func Playback(batch []queuedCommand, onComplete func(NotifyID)) {
	for i := range batch {
		c := &batch[i]
		c.invoke()
		if c.notify.IsValid() && onComplete != nil {
			onComplete(c.notify)
		}
	}
}
