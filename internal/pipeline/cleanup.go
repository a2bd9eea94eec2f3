package pipeline

import "os"

// cleanupList tracks temporary files registered during one Engine call so
// they are released on every exit path: success, error, or a context
// cancellation that unwinds the call stack.
type cleanupList struct {
	paths []string
}

func (c *cleanupList) add(path string) {
	c.paths = append(c.paths, path)
}

func (c *cleanupList) run() {
	for _, p := range c.paths {
		os.Remove(p)
	}
}
