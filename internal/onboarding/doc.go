// Package onboarding drives the first-run sequence shown before the timer.
//
// A Flow walks an ordered list of Steps. A step may carry an action (for
// example requesting the notification permission). Any boolean outcome of
// the action completes the step: a denied permission is a valid answer, not
// a failure. Leaving a step whose action never completed asks the user to
// confirm the skip.
//
// The Flow has no I/O of its own. The CLI renders steps and the confirmation
// dialog; persistence of the "first launch completed" flag goes through a
// Completer.
package onboarding
