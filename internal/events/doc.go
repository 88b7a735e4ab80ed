// Package events publishes person lifecycle events.
//
// The repository emits a PersonEvent after each committed create, save or
// delete. Handlers registered with an EventEmitter receive events
// synchronously, in registration order, on the goroutine that made the change.
//
// The primary components are:
// - PersonEvent: a change to one person
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that dispatch events
package events
