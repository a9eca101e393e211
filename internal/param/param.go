// Package param applies ordered, individually fallible keyed settings to a
// native encoder.
package param

import "fmt"

// Error reports the first setting a native library refused.
type Error struct {
	Key   string
	Value any
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Key, e.Value)
	}
	return fmt.Sprintf("%s: %v: %v", e.Key, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Setting is one key/value pair.
type Setting[V any] struct {
	Key   string
	Value V
}

// List is an ordered set of settings of one value type.
type List[V any] []Setting[V]

// Add appends a setting.
func (l *List[V]) Add(key string, value V) {
	*l = append(*l, Setting[V]{Key: key, Value: value})
}

// AddIf appends a setting when cond holds.
func (l *List[V]) AddIf(cond bool, key string, value V) {
	if cond {
		l.Add(key, value)
	}
}

// Apply hands every setting to set in order and stops at the first failure.
func (l List[V]) Apply(set func(key string, value V) error) error {
	for _, s := range l {
		if err := set(s.Key, s.Value); err != nil {
			return &Error{Key: s.Key, Value: s.Value, Err: err}
		}
	}
	return nil
}

// Keys returns the keys in application order.
func (l List[V]) Keys() []string {
	keys := make([]string, len(l))
	for i, s := range l {
		keys[i] = s.Key
	}
	return keys
}

// Lookup returns the value of the last setting named key.
func (l List[V]) Lookup(key string) (V, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Key == key {
			return l[i].Value, true
		}
	}
	var zero V
	return zero, false
}
