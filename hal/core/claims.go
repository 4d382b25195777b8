package core

// Claims is a release stack for one component's handles. Release functions
// run in reverse order of Add, so anything that depends on an earlier
// resource (a bus behind a power-gate pin) goes first.
type Claims struct {
	fns []func()
}

// Add pushes a release function.
func (c *Claims) Add(fn func()) { c.fns = append(c.fns, fn) }

// Len is the number of pending releases.
func (c *Claims) Len() int { return len(c.fns) }

// ReleaseAll runs every pending release once, newest first, and empties the
// stack. Calling it again does nothing.
func (c *Claims) ReleaseAll() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		fn := c.fns[i]
		c.fns[i] = nil
		fn()
	}
	c.fns = c.fns[:0]
}
