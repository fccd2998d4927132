// Package switcher moves the process from one active profile to another:
// save the outgoing layout, move the pointer, then reactivate the view
// for the incoming profile.
package switcher
