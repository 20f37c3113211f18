package store

// pendingWrite is a single queued write inside a batch.
type pendingWrite struct {
	collection string
	id         string
	fields     map[string]any
	isSet      bool
}

// writePlan keeps batch writes in arrival order while collapsing repeated
// writes to the same document: the later write replaces the earlier one
// before commit. Firestore rejects two writes against the same document in
// one WriteBatch, and the reconciler's "duplicate natural keys are
// last-write-wins" rule wants the collapse anyway.
type writePlan struct {
	order []string
	byRef map[string]pendingWrite
}

func newWritePlan() *writePlan {
	return &writePlan{byRef: make(map[string]pendingWrite)}
}

func (p *writePlan) add(w pendingWrite) {
	key := w.collection + "/" + w.id
	if _, exists := p.byRef[key]; !exists {
		p.order = append(p.order, key)
	}
	p.byRef[key] = w
}

func (p *writePlan) ordered() []pendingWrite {
	out := make([]pendingWrite, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.byRef[key])
	}
	return out
}
