package logic

// Elapsed returns the milliseconds from since to now on a wrapping uint32
// clock. Correct as long as the true gap is below 2^32 ms.
func Elapsed(now, since uint32) uint32 {
	return now - since
}

// Cursor is a task's last-fired timestamp.
type Cursor struct {
	last uint32
}

// Due reports whether at least interval ms have passed since the last firing.
func (c *Cursor) Due(now, interval uint32) bool {
	return Elapsed(now, c.last) >= interval
}

// Fire advances the cursor by one interval. If the task is still a full
// interval behind afterwards it is resynchronised to now, so a task that was
// starved never fires in a burst.
func (c *Cursor) Fire(now, interval uint32) {
	c.last += interval
	if Elapsed(now, c.last) >= interval {
		c.last = now
	}
}

// Take is Due followed by Fire when due.
func (c *Cursor) Take(now, interval uint32) bool {
	if !c.Due(now, interval) {
		return false
	}
	c.Fire(now, interval)
	return true
}

// Last returns the last-fired timestamp.
func (c *Cursor) Last() uint32 {
	return c.last
}
