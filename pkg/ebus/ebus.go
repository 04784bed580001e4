package ebus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var ErrNoListeners = errors.New("no listeners registered")

type EBus struct {
	listeners map[string][]Listener
	mx        sync.RWMutex
}

func New() *EBus {
	return &EBus{
		listeners: make(map[string][]Listener),
	}
}

func (e *EBus) Subscribe(event any, handler Listener) *EBus {
	e.mx.Lock()
	defer e.mx.Unlock()

	name := nameOf(event)
	e.listeners[name] = append(e.listeners[name], handler)

	return e
}

// Emit calls every listener of the event's type in subscription order and
// stops at the first error.
func (e *EBus) Emit(ctx context.Context, event any) error {
	e.mx.RLock()
	handlers := e.listeners[nameOf(event)]
	e.mx.RUnlock()

	if len(handlers) == 0 {
		return fmt.Errorf("%w: type %T", ErrNoListeners, event)
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

// Has reports whether anyone listens to events of this type.
func (e *EBus) Has(event any) bool {
	e.mx.RLock()
	defer e.mx.RUnlock()

	return len(e.listeners[nameOf(event)]) > 0
}

func nameOf(event any) string {
	t := reflect.TypeOf(event)
	return t.PkgPath() + "." + t.Name()
}
