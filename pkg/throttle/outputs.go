package throttle

import "github.com/google/uuid"

// SetOutputCount declares how many output sequences share the pool. Values
// above one enable release synchronization and reset the registry.
func (p *Pool) SetOutputCount(k int) {
	p.logger.Debug("Number of outputs: %d", k)

	p.mu.Lock()
	defer p.mu.Unlock()
	if k > 1 {
		p.outputs = make([]output, k)
		p.done = make(map[int]int)
	} else {
		p.outputs = nil
		p.done = nil
	}
}

// OutputCount returns the number of synchronized outputs (1 when disabled).
func (p *Pool) OutputCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outputs == nil {
		return 1
	}
	return len(p.outputs)
}

// Register assigns a registry slot to the sequence, or returns the one it
// already has. It returns -1 when synchronization is disabled or the
// registry is full.
func (p *Pool) Register(id uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slotFor(id)
}

func (p *Pool) slotFor(id uuid.UUID) int {
	for i := range p.outputs {
		o := &p.outputs[i]
		if !o.used {
			o.id = id
			o.used = true
			o.index = -1
			return i
		}
		if o.id == id {
			return i
		}
	}
	return -1
}

// Notify records that the sequence no longer needs the image at index and
// releases the slot once every output is done with it.
func (p *Pool) Notify(id uuid.UUID, index int) {
	p.notify(id, index, notifyInOrder)
}

// NotifyAbandoned is Notify for images dropped by a stopped writer, where
// gaps in the index sequence are expected.
func (p *Pool) NotifyAbandoned(id uuid.UUID, index int) {
	p.notify(id, index, notifyWithGaps)
}

// NotifySkipped records that the sequence will never receive the image at
// index, for instance because its writer refused it. Skips may arrive in
// any order.
func (p *Pool) NotifySkipped(id uuid.UUID, index int) {
	p.notify(id, index, notifySkip)
}

type notifyMode int

const (
	notifyInOrder notifyMode = iota
	notifyWithGaps
	notifySkip
)

// logLine is a message recorded under p.mu and logged after unlocking.
type logLine struct {
	msg  string
	args []any
}

func (p *Pool) notify(id uuid.UUID, index int, mode notifyMode) {
	p.mu.Lock()
	synced := p.outputs != nil
	problems, released := p.notifyLocked(id, index, mode)
	p.mu.Unlock()

	for _, l := range problems {
		p.logger.Error(l.msg, l.args...)
	}
	if released && synced {
		p.logger.Debug("All outputs notified for index %d, releasing", index)
	}
}

func (p *Pool) notifyLocked(id uuid.UUID, index int, mode notifyMode) ([]logLine, bool) {
	unreserved := logLine{msg: "Memory slot released without a reservation"}
	if p.outputs == nil {
		if !p.releaseLocked() {
			return []logLine{unreserved}, false
		}
		return nil, true
	}

	slot := p.slotFor(id)
	if slot < 0 {
		return []logLine{{
			msg:  "Sequence %s is not part of the %d synchronized outputs",
			args: []any{id, len(p.outputs)},
		}}, false
	}

	var problems []logLine
	if mode != notifySkip {
		o := &p.outputs[slot]
		if index <= o.index {
			return []logLine{{
				msg:  "Inconsistent index in memory management (%d after %d)",
				args: []any{index, o.index},
			}}, false
		}
		if mode == notifyInOrder && index != o.index+1 {
			problems = append(problems, logLine{
				msg:  "Inconsistent index in memory management (%d for expected %d)",
				args: []any{index, o.index + 1},
			})
		}
		o.index = index
	}

	p.done[index]++
	if p.done[index] < len(p.outputs) {
		return problems, false
	}
	delete(p.done, index)
	if !p.releaseLocked() {
		return append(problems, unreserved), false
	}
	return problems, true
}
