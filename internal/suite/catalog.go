package suite

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

var (
	// ErrSuiteNotFound indicates no suite is registered under the given id.
	ErrSuiteNotFound = errors.New("suite not found")

	// ErrSuiteExists indicates a suite with the same id is already registered.
	ErrSuiteExists = errors.New("suite already exists")
)

// Catalog is an in-memory store of built suites keyed by suite id.
// Suites are never mutated once added.
type Catalog struct {
	mu     sync.RWMutex
	suites map[string]*pipeline.Suite
	order  []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		suites: make(map[string]*pipeline.Suite),
	}
}

// Add registers a suite.
func (c *Catalog) Add(s *pipeline.Suite) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.suites[s.ID]; exists {
		return fmt.Errorf("adding suite %s: %w", s.ID, ErrSuiteExists)
	}
	c.suites[s.ID] = s
	c.order = append(c.order, s.ID)
	return nil
}

// Get returns the suite registered under id.
func (c *Catalog) Get(id string) (*pipeline.Suite, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.suites[id]
	if !ok {
		return nil, fmt.Errorf("getting suite %s: %w", id, ErrSuiteNotFound)
	}
	return s, nil
}

// List returns all suites in registration order.
func (c *Catalog) List() []*pipeline.Suite {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*pipeline.Suite, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.suites[id])
	}
	return out
}

// Len returns the number of registered suites.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.suites)
}
