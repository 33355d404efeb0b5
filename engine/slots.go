// Package engine provides the per-tensor bookkeeping the outer
// synchronization pipeline keys its compressor instances by.
//
// Each tensor owns exactly one compressor instance for the lifetime of
// a run. The table hands the same slot back for the same tensor name,
// so call ordering per instance stays the caller's single in-flight
// contract; distinct slots are independent and run fully in parallel.
package engine

import (
	"fmt"
	"sync"

	"github.com/arloliu/gradwire/compressor"
	"github.com/arloliu/gradwire/format"
	"github.com/arloliu/gradwire/internal/hash"
	"github.com/arloliu/gradwire/internal/options"
)

// Slot binds one tensor to its compressor instance.
type Slot struct {
	// ID is the xxHash64 of the tensor name, the key the transport
	// layer tags payloads with.
	ID uint64

	// Name is the tensor's unique name; kept to disambiguate hash
	// collisions.
	Name string

	Dtype      format.DataType
	Size       int
	Compressor compressor.Compressor
}

// Table maps tensor names to their compressor slots. Safe for
// concurrent registration and lookup.
type Table struct {
	mu      sync.RWMutex
	slots   map[uint64]*Slot
	device  int
	aligned func(int) int
}

// Option configures a Table.
type Option = options.Option[*Table]

// WithDevice sets the device id passed to each compressor's Init.
func WithDevice(device int) Option {
	return options.NoError(func(t *Table) {
		t.device = device
	})
}

// WithAlignment rounds every registered tensor size up to a multiple of
// align bytes before sizing compressor buffers.
func WithAlignment(align int) Option {
	return options.New(func(t *Table) error {
		if align <= 0 {
			return fmt.Errorf("alignment must be positive, got %d", align)
		}
		t.aligned = func(size int) int {
			return (size + align - 1) / align * align
		}

		return nil
	})
}

// NewTable creates an empty slot table.
func NewTable(opts ...Option) (*Table, error) {
	t := &Table{
		slots:   make(map[uint64]*Slot),
		aligned: func(size int) int { return size },
	}
	if err := options.Apply(t, opts...); err != nil {
		return nil, err
	}

	return t, nil
}

// Register creates, initializes, and stores the compressor for a
// tensor. Registering the same name twice is an error: slots are owned
// exclusively and never shared. A hash collision between two distinct
// names is also an error rather than a silent overwrite.
func (t *Table) Register(name string, size int, dtype format.DataType, kwargs compressor.Kwargs) (*Slot, error) {
	c, err := compressor.Create(kwargs, size, dtype)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}
	if err := c.Init(t.aligned(size), t.device); err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}

	slot := &Slot{
		ID:         hash.ID(name),
		Name:       name,
		Dtype:      dtype,
		Size:       size,
		Compressor: c,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.slots[slot.ID]; ok {
		if existing.Name == name {
			return nil, fmt.Errorf("tensor %q already registered", name)
		}

		return nil, fmt.Errorf("tensor %q collides with %q on id %#x", name, existing.Name, slot.ID)
	}
	t.slots[slot.ID] = slot

	return slot, nil
}

// Get returns the slot for a tensor name.
func (t *Table) Get(name string) (*Slot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot, ok := t.slots[hash.ID(name)]
	if !ok || slot.Name != name {
		return nil, false
	}

	return slot, true
}

// GetID returns the slot for a payload's tensor id.
func (t *Table) GetID(id uint64) (*Slot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot, ok := t.slots[id]

	return slot, ok
}

// Len returns the number of registered slots.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.slots)
}
