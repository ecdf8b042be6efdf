package registry

import (
	"slices"

	"github.com/alphadose/haxmap"
)

// Registry is a named set of values that is safe for concurrent use.
type Registry[T any] interface {
	Get(name string) (T, bool)
	// Put stores value under name, replacing whatever was there.
	Put(name string, value T)
	GetOrAdd(name string, value func() T) (T, bool)
	// Remove deletes name. Removing an absent name does nothing.
	Remove(name string)
	Names() []string
	Len() int
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) Put(name string, value T) {
	r.values.Set(name, value)
}

func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(name, valueFn)
}

func (r *registry[T]) Remove(name string) {
	r.values.Del(name)
}

// Names returns a sorted snapshot of the registered names.
func (r *registry[T]) Names() []string {
	names := make([]string, 0, r.values.Len())
	r.values.ForEach(func(name string, _ T) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

func (r *registry[T]) Len() int {
	return int(r.values.Len())
}
