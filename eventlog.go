package picking

// EventLog is a double-buffered event collection for pull-style consumers.
// Events written during a frame stay readable for that frame and the next;
// Update, called once per frame by the Picker, drops the older buffer.
//
// A cursor that reads at least once per frame never misses events. The log
// is not safe for concurrent use.
type EventLog struct {
	prev, cur []Event
	prevStart uint64 // sequence number of prev[0]
	curStart  uint64 // sequence number of cur[0]
	written   uint64
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// EmitEvent appends ev. EventLog is an EntityStore.
func (l *EventLog) EmitEvent(ev Event) {
	l.cur = append(l.cur, ev)
	l.written++
}

// Update swaps buffers, dropping events written two updates ago.
func (l *EventLog) Update() {
	clear(l.prev)
	l.prev, l.cur = l.cur, l.prev[:0]
	l.prevStart = l.curStart
	l.curStart = l.written
}

// Len returns the number of buffered events.
func (l *EventLog) Len() int {
	return len(l.prev) + len(l.cur)
}

// Cursor returns a reader positioned at the oldest buffered event.
func (l *EventLog) Cursor() *EventCursor {
	return &EventCursor{log: l, next: l.prevStart}
}

// CursorCurrent returns a reader that skips every event already buffered.
func (l *EventLog) CursorCurrent() *EventCursor {
	return &EventCursor{log: l, next: l.written}
}

// EventCursor tracks one consumer's position in an EventLog.
type EventCursor struct {
	log    *EventLog
	next   uint64
	missed uint64
}

// Read returns the events written since the previous Read, oldest first.
// The returned slice is owned by the caller.
func (c *EventCursor) Read() []Event {
	l := c.log
	from := c.next
	c.missed = 0
	if from < l.prevStart {
		c.missed = l.prevStart - from
		from = l.prevStart
	}
	out := make([]Event, 0, l.written-from)
	if from < l.curStart {
		out = append(out, l.prev[from-l.prevStart:]...)
		from = l.curStart
	}
	out = append(out, l.cur[from-l.curStart:]...)
	c.next = l.written
	return out
}

// Missed returns how many events the last Read skipped because the cursor
// fell more than one update behind.
func (c *EventCursor) Missed() uint64 {
	return c.missed
}
