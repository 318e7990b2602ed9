package core

import (
	"fmt"
	"time"
)

// outbox holds a worker's two outbound single-consumer queues: callback
// thunks for the host to invoke at drain time, and human-readable trace
// lines describing job outcomes. The worker loop is the sole producer.
type outbox struct {
	actions fifo[func()]
	logs    fifo[string]
}

func newOutbox() *outbox {
	return &outbox{}
}

func (o *outbox) pushAction(fn func()) {
	o.actions.push(fn)
}

func (o *outbox) pushLog(line string) {
	o.logs.push(line)
}

// terminal queues the envelope's terminal callback thunk and trace
// line, then fires the finish hook so the pool can drop the envelope
// from its cancellation index. Exactly one terminal call happens per
// executed envelope.
func (o *outbox) terminal(e *envelopeBase, outcome Outcome, thunk func(), line string) {
	o.pushAction(thunk)
	o.pushLog(line)
	e.fireFinish(outcome)
}

// skipped records a cancelled-while-queued envelope. No callbacks fire
// unless the submitter registered a cancellation notification.
func (o *outbox) skipped(e *envelopeBase) {
	if notify := e.cancelNotify(); notify != nil {
		o.pushAction(notify)
	}
	o.pushLog(fmt.Sprintf("job %s (%s) cancelled before execution, queued %s",
		e.id, e.mode, time.Since(e.createdAt).Round(time.Microsecond)))
	e.fireFinish(OutcomeCancelled)
}
