package capture

// Tracker fills per-pose quotas strictly in declared order: a captured frame
// is always attributed to the first incomplete step at capture time, never to
// a user-selected pose.
type Tracker struct {
	steps []Step
}

func NewTracker(steps []Step) *Tracker {
	cp := make([]Step, len(steps))
	copy(cp, steps)
	for i := range cp {
		cp[i].Captured = 0
	}
	return &Tracker{steps: cp}
}

// Steps returns a snapshot of the step sequence.
func (t *Tracker) Steps() []Step {
	cp := make([]Step, len(t.steps))
	copy(cp, t.steps)
	return cp
}

// NextStep returns the first step with unmet quota. ok is false when capture
// is complete.
func (t *Tracker) NextStep() (step Step, ok bool) {
	for _, s := range t.steps {
		if s.Captured < s.Required {
			return s, true
		}
	}
	return Step{}, false
}

// Record attributes one accepted frame to the current incomplete step and
// returns it. No-op when capture is already complete.
func (t *Tracker) Record() (step Step, ok bool) {
	for i := range t.steps {
		if t.steps[i].Captured < t.steps[i].Required {
			t.steps[i].Captured++
			return t.steps[i], true
		}
	}
	return Step{}, false
}

func (t *Tracker) TotalRequired() int {
	var n int
	for _, s := range t.steps {
		n += s.Required
	}
	return n
}

func (t *Tracker) TotalCaptured() int {
	var n int
	for _, s := range t.steps {
		n += s.Captured
	}
	return n
}

// Complete reports whether every step's quota is met.
func (t *Tracker) Complete() bool {
	return t.TotalCaptured() == t.TotalRequired()
}

// Reset zeroes all captured counts.
func (t *Tracker) Reset() {
	for i := range t.steps {
		t.steps[i].Captured = 0
	}
}
