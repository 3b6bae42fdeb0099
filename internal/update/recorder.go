package update

import "github.com/cutline/cutline/backend-go/internal/document"

// RecordedCall is one persistence call captured by the Recorder.
type RecordedCall struct {
	Op        string // "clip", "transition", "delete_clip", "delete_transition", "marker", "duration"
	ID        string
	BasicOnly bool
	TxnID     string
	Seconds   float64
}

// Recorder is an in-memory Manager used by tests and by sessions without a
// backing store. It captures every call in order.
type Recorder struct {
	txn   txnState
	Calls []RecordedCall

	BeginCount int
	EndCount   int
	ClosedTxns []string
}

var _ Manager = (*Recorder)(nil)

func (r *Recorder) BeginTransaction() string {
	r.BeginCount++
	return r.txn.begin()
}

func (r *Recorder) EndTransaction() {
	r.EndCount++
	id := r.txn.id
	if r.txn.end() {
		r.ClosedTxns = append(r.ClosedTxns, id)
	}
}

func (r *Recorder) UpdateClip(c *document.Clip, basicOnly bool, txnID string) error {
	r.Calls = append(r.Calls, RecordedCall{Op: "clip", ID: c.ID, BasicOnly: basicOnly, TxnID: txnID})
	return nil
}

func (r *Recorder) UpdateTransition(t *document.Transition, basicOnly bool, txnID string) error {
	r.Calls = append(r.Calls, RecordedCall{Op: "transition", ID: t.ID, BasicOnly: basicOnly, TxnID: txnID})
	return nil
}

func (r *Recorder) DeleteClip(id, txnID string) error {
	r.Calls = append(r.Calls, RecordedCall{Op: "delete_clip", ID: id, TxnID: txnID})
	return nil
}

func (r *Recorder) DeleteTransition(id, txnID string) error {
	r.Calls = append(r.Calls, RecordedCall{Op: "delete_transition", ID: id, TxnID: txnID})
	return nil
}

func (r *Recorder) UpdateMarker(m *document.Marker, txnID string) error {
	r.Calls = append(r.Calls, RecordedCall{Op: "marker", ID: m.ID, TxnID: txnID})
	return nil
}

func (r *Recorder) ExtendDuration(seconds float64, txnID string) error {
	r.Calls = append(r.Calls, RecordedCall{Op: "duration", Seconds: seconds, TxnID: txnID})
	return nil
}

// CallsOf filters recorded calls by op.
func (r *Recorder) CallsOf(op string) []RecordedCall {
	var out []RecordedCall
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}
