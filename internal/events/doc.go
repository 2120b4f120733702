// Package events defines the sync lifecycle events the engine emits and
// a simple in-memory emitter for dispatching them to registered
// handlers, decoupling the engine from whatever UI observes it.
package events
