package aggregates

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Constructor builds an empty accumulator whose internal representation is kind.
type Constructor func(kind Kind) (AggregateFn, error)

// Registry maps aggregate names to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// 全局聚合函数注册器
var globalRegistry = NewRegistry()

func init() {
	_ = globalRegistry.Register("mean", newMean)
	_ = globalRegistry.Register("avg", newMean)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under name. Names are case-insensitive.
func (r *Registry) Register(name string, ctor Constructor) error {
	if ctor == nil {
		return errors.Errorf("aggregate %s: nil constructor", name)
	}
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[key]; exists {
		return errors.Errorf("aggregate %s already registered", key)
	}
	r.constructors[key] = ctor
	return nil
}

// New creates an accumulator for name at the given internal kind.
func (r *Registry) New(name string, kind Kind) (AggregateFn, error) {
	r.mu.RLock()
	ctor, exists := r.constructors[strings.ToLower(name)]
	r.mu.RUnlock()
	if !exists {
		return nil, errors.Errorf("aggregate function %s not found", name)
	}
	fn, err := ctor(kind)
	if err != nil {
		return nil, errors.Wrapf(err, "aggregate function %s", name)
	}
	return fn, nil
}

// Names lists the registered aggregates in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a constructor to the global registry.
func Register(name string, ctor Constructor) error {
	return globalRegistry.Register(name, ctor)
}

// New creates an accumulator from the global registry.
func New(name string, kind Kind) (AggregateFn, error) {
	return globalRegistry.New(name, kind)
}

// MustNew is like New but panics on error. Intended for tests and static setup.
func MustNew(name string, kind Kind) AggregateFn {
	fn, err := New(name, kind)
	if err != nil {
		panic(err)
	}
	return fn
}

// Names lists the aggregates of the global registry.
func Names() []string {
	return globalRegistry.Names()
}

func newMean(kind Kind) (AggregateFn, error) {
	switch kind {
	case Float32:
		return NewMeanAgg[float32](), nil
	case Float64:
		return NewMeanAgg[float64](), nil
	}
	return nil, errors.Errorf("mean is only defined for f32 and f64, got %s", kind)
}
