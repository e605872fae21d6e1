// Package definition resolves lazily declared schema definitions.
//
// Schema entities refer to each other through handles: small comparable Go
// values (usually zero-size struct types) that know how to build the
// definition they stand for. A Resolver wraps a handle together with a cache
// cell. Building is deferred until the first Resolve call and happens at most
// once; every later call, and every clone of the resolver, observes the same
// *T. This is what lets object types refer to themselves or to types declared
// later without ordering constraints.
//
// Resolution is safe for concurrent use. When several goroutines resolve the
// same unfilled resolver, exactly one of them runs the provider and the others
// wait for its result. A provider that, directly or transitively, resolves the
// resolver it is currently building receives a *CycleError instead of
// deadlocking, also when the builds of the cycle run on different goroutines.
// Graph walkers handle cycles through their own visited sets.
package definition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Provider builds the definition a handle stands for.
type Provider[T any] interface {
	Definition(ctx context.Context) (*T, error)
}

// ErrNilDefinition is reported when a provider returns neither a definition nor an error.
var ErrNilDefinition = errors.New("definition: provider returned nil definition")

// Resolver is a lazy, memoized reference to a definition. The zero value is
// unusable; construct resolvers with New, Must or a Registry.
//
// Copying a Resolver is cheap and shares the cache cell.
type Resolver[T any] struct {
	handle   any
	provider Provider[T]
	cell     *cell[T]
}

type cell[T any] struct {
	filled atomic.Bool

	mu        sync.Mutex
	resolving bool
	done      chan struct{}
	value     *T
	err       error
}

// New wraps handle in an unresolved Resolver. The handle is checked against
// Provider[T] immediately so malformed declarations fail while the schema is
// assembled rather than while a query executes.
func New[T any](handle any) (Resolver[T], error) {
	p, ok := handle.(Provider[T])
	if !ok {
		return Resolver[T]{}, &TypeMismatchError{Handle: QualifiedName(handle), Want: providerName[T]()}
	}
	return Resolver[T]{handle: handle, provider: p, cell: &cell[T]{}}, nil
}

// Must is like New but panics on a type mismatch.
func Must[T any](handle any) Resolver[T] {
	r, err := New[T](handle)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the definition, building it on first use.
//
// A provider failing because ctx was cancelled or timed out leaves the
// resolver unfilled; the next Resolve builds again. Any other outcome is
// cached.
func (r Resolver[T]) Resolve(ctx context.Context) (*T, error) {
	c := r.cell
	if c == nil {
		return nil, errors.New("definition: resolve on zero Resolver")
	}
	for {
		if c.filled.Load() {
			return c.value, c.err
		}

		c.mu.Lock()
		if c.filled.Load() {
			c.mu.Unlock()
			return c.value, c.err
		}
		if !c.resolving {
			c.resolving = true
			c.done = make(chan struct{})
			c.mu.Unlock()
			return r.fill(ctx)
		}
		done := c.done
		c.mu.Unlock()

		if err := r.wait(ctx, done); err != nil {
			return nil, err
		}
	}
}

// wait blocks until the running fill of r finishes or is abandoned.
func (r Resolver[T]) wait(ctx context.Context, done <-chan struct{}) error {
	chain, _ := ctx.Value(inFlightKey{}).(*inFlightNode)
	if !waits.block(chain, r.cell) {
		return &CycleError{Name: r.QualifiedName()}
	}
	defer waits.unblock(chain)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r Resolver[T]) fill(ctx context.Context) (value *T, err error) {
	c := r.cell
	completed := false
	defer func() {
		if !completed {
			// provider panicked; release waiters before the panic continues
			c.store(nil, fmt.Errorf("definition: provider for %s panicked", r.QualifiedName()))
		}
	}()

	value, err = r.provider.Definition(withInFlight(ctx, c))
	completed = true
	if err != nil && ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		c.abandon()
		return nil, fmt.Errorf("resolve %s: %w", r.QualifiedName(), err)
	}
	if err != nil {
		value, err = nil, fmt.Errorf("resolve %s: %w", r.QualifiedName(), err)
	} else if value == nil {
		err = fmt.Errorf("resolve %s: %w", r.QualifiedName(), ErrNilDefinition)
	}
	c.store(value, err)
	return value, err
}

// abandon wakes waiters without filling the cell; one of them builds next.
func (c *cell[T]) abandon() {
	c.mu.Lock()
	c.resolving = false
	close(c.done)
	c.done = nil
	c.mu.Unlock()
}

func (c *cell[T]) store(value *T, err error) {
	c.mu.Lock()
	c.value, c.err = value, err
	c.resolving = false
	c.filled.Store(true)
	close(c.done)
	c.mu.Unlock()
}

// Peek returns the cached definition without building it.
func (r Resolver[T]) Peek() (*T, bool) {
	if r.cell == nil || !r.cell.filled.Load() {
		return nil, false
	}
	return r.cell.value, r.cell.value != nil
}

// Clone returns a resolver sharing r's cache.
func (r Resolver[T]) Clone() Resolver[T] { return r }

// Handle returns the wrapped handle.
func (r Resolver[T]) Handle() any { return r.handle }

// IsZero reports whether r was never constructed.
func (r Resolver[T]) IsZero() bool { return r.cell == nil }

// QualifiedName names the handle for diagnostics. It never triggers resolution.
func (r Resolver[T]) QualifiedName() string { return QualifiedName(r.handle) }

// SameDefinition reports whether a and b resolve to the same definition.
func SameDefinition[T any](ctx context.Context, a, b Resolver[T]) (bool, error) {
	da, err := a.Resolve(ctx)
	if err != nil {
		return false, err
	}
	db, err := b.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return da == db, nil
}

// in-flight chain of cells being built by the current call stack
type inFlightKey struct{}

type inFlightNode struct {
	cell   any
	parent *inFlightNode
}

func withInFlight(ctx context.Context, c any) context.Context {
	parent, _ := ctx.Value(inFlightKey{}).(*inFlightNode)
	return context.WithValue(ctx, inFlightKey{}, &inFlightNode{cell: c, parent: parent})
}

func (n *inFlightNode) holds(c any) bool {
	for ; n != nil; n = n.parent {
		if n.cell == c {
			return true
		}
	}
	return false
}

// waitGraph records which cell each blocked build chain is waiting for.
// Cells being built are owned by exactly one chain, so following the edges
// from a cell either ends at a chain that is not blocked or comes back to
// the caller, which is a cycle across goroutines.
type waitGraph struct {
	mu      sync.Mutex
	blocked map[*inFlightNode]any
}

var waits = waitGraph{blocked: make(map[*inFlightNode]any)}

// block registers chain as waiting for target. It reports false, registering
// nothing, when the wait would close a cycle.
func (g *waitGraph) block(chain *inFlightNode, target any) bool {
	if chain == nil {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for cur, steps := target, 0; steps <= len(g.blocked); steps++ {
		if chain.holds(cur) {
			return false
		}
		next, ok := g.owner(cur)
		if !ok {
			break
		}
		cur = next
	}
	g.blocked[chain] = target
	return true
}

// owner returns the cell the chain building c is blocked on.
func (g *waitGraph) owner(c any) (any, bool) {
	for n, target := range g.blocked {
		if n.holds(c) {
			return target, true
		}
	}
	return nil, false
}

func (g *waitGraph) unblock(chain *inFlightNode) {
	if chain == nil {
		return
	}
	g.mu.Lock()
	delete(g.blocked, chain)
	g.mu.Unlock()
}
