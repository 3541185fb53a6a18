package disposable

import "sync"

// Composite disposes a group of children together.
//
// Children added after the composite is disposed are disposed immediately.
type Composite struct {
	mu       sync.Mutex
	children []Disposable
	disposed bool
}

// NewComposite creates a composite holding the given children.
func NewComposite(children ...Disposable) *Composite {
	c := &Composite{children: make([]Disposable, 0, len(children))}
	for _, d := range children {
		if d != nil {
			c.children = append(c.children, d)
		}
	}
	return c
}

// Add registers a child.
func (c *Composite) Add(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.children = append(c.children, d)
	c.mu.Unlock()
}

// Remove unregisters a child and disposes it.
// It reports whether the child was found.
func (c *Composite) Remove(d Disposable) bool {
	if d == nil {
		return false
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	found := false
	for i, child := range c.children {
		if child == d {
			last := len(c.children) - 1
			c.children[i] = c.children[last]
			c.children[last] = nil
			c.children = c.children[:last]
			found = true
			break
		}
	}
	c.mu.Unlock()

	if found {
		d.Dispose()
	}
	return found
}

// Len returns the number of registered children.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.children)
}

// Dispose disposes every child and rejects future ones.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for _, d := range children {
		d.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
