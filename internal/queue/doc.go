// Package queue holds the help queue's view-state controller.
//
// A Controller decides which single panel is on screen (ticket list, create form,
// ticket detail, edit form, or error) from a handful of flags, and keeps the ticket
// snapshot in sync with a live Store subscription. It is not safe for concurrent use:
// every method, and every store callback, must run on the one event loop that owns the
// controller. Loop provides such an event loop for hosts that do not have one.
package queue
