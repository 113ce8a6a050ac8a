// Package store provides a reactive value container with subscription
// support, typically updated from inside action handlers.
//
// Subscribers are notified on every value change. By default
// notification is deferred: callbacks run on a background goroutine in
// change order, so a handler can update a store without re-entering
// subscriber code mid-pipeline. SetValue with WithSync notifies
// subscribers immediately in the caller's goroutine instead.
package store
