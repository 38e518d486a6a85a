// Package handles keeps pact documents in a process wide registry and hands
// out opaque integer handles to them.
package handles

import (
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/models"
)

type entry struct {
	mu      sync.Mutex
	pact    *models.Pact
	gate    Gate
	removed bool
}

// Registry maps handles to pact documents. The registry lock only guards the
// map; each document has its own lock which is held for the length of a
// WithPact or WithInteraction call.
type Registry struct {
	mu      sync.Mutex
	entries map[uint16]*entry
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[uint16]*entry{}}
}

// Create stores a new pact and returns its handle. Handles are assigned as
// the registry size plus one, moving on to the next free id if that one is
// still taken after a deletion. Zero is returned when the registry is full.
func (r *Registry) Create(pact *models.Pact) PactHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= math.MaxUint16 {
		log.Errorf("unable to create pact for %s: registry is full", pact.Consumer.Name)
		return 0
	}
	id := uint16(len(r.entries) + 1)
	for {
		if _, taken := r.entries[id]; !taken && id != 0 {
			break
		}
		id++
	}
	r.entries[id] = &entry{pact: pact}
	return PactHandle(id)
}

// checkout locks and returns the entry for id. The caller must call checkin.
func (r *Registry) checkout(id uint16) (*entry, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, false
	}
	return e, true
}

func (e *entry) checkin() {
	e.mu.Unlock()
}

// Delete removes a pact, reporting whether it existed. Handles derived from
// it stop resolving immediately.
func (r *Registry) Delete(h PactHandle) bool {
	r.mu.Lock()
	e, ok := r.entries[uint16(h)]
	delete(r.entries, uint16(h))
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return true
}

func (r *Registry) Reset() {
	r.mu.Lock()
	entries := r.entries
	r.entries = map[uint16]*entry{}
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// MarkMockServerStarted freezes the pact. It reports false if the handle does
// not resolve.
func (r *Registry) MarkMockServerStarted(h PactHandle) bool {
	_, ok := WithPact(r, h, func(_ *models.Pact, gate *Gate) struct{} {
		gate.Freeze()
		return struct{}{}
	})
	return ok
}

// WithPact calls fn with exclusive access to the pact. The second result is
// false if the handle does not resolve, in which case fn is not called.
func WithPact[R any](r *Registry, h PactHandle, fn func(pact *models.Pact, gate *Gate) R) (R, bool) {
	var zero R
	e, ok := r.checkout(uint16(h))
	if !ok {
		return zero, false
	}
	defer e.checkin()

	return fn(e.pact, &e.gate), true
}

// WithInteraction calls fn with exclusive access to the interaction and its
// pact. Sentinel handles and indexes past the end do not resolve.
func WithInteraction[R any](r *Registry, h InteractionHandle, fn func(pact *models.Pact, interaction models.Interaction, gate *Gate) R) (R, bool) {
	var zero R
	pactHandle, index := h.Decompose()
	if index == 0 {
		return zero, false
	}
	e, ok := r.checkout(uint16(pactHandle))
	if !ok {
		return zero, false
	}
	defer e.checkin()

	interaction, ok := e.pact.Interaction(int(index) - 1)
	if !ok {
		return zero, false
	}
	return fn(e.pact, interaction, &e.gate), true
}

func WithMessagePact[R any](r *Registry, h MessagePactHandle, fn func(pact *models.Pact) R) (R, bool) {
	return WithPact(r, PactHandle(h), func(pact *models.Pact, _ *Gate) R {
		return fn(pact)
	})
}

// WithMessage calls fn for message interactions only.
func WithMessage[R any](r *Registry, h MessageHandle, fn func(pact *models.Pact, message models.Interaction) R) (R, bool) {
	var zero R
	var kindOK bool
	result, ok := WithInteraction(r, InteractionHandle(h), func(pact *models.Pact, interaction models.Interaction, _ *Gate) R {
		if !models.IsMessage(interaction) {
			log.Errorf("interaction %s is not a message interaction, it is %s", h, interaction.Kind().TypeOf())
			return zero
		}
		kindOK = true
		return fn(pact, interaction)
	})
	return result, ok && kindOK
}
