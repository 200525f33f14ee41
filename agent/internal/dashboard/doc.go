// Package dashboard renders window averages and the health tier as a
// refreshing terminal table.
//
// Run loads a snapshot through a Loader every refresh interval and redraws
// the screen until the quit key, Ctrl-C or context cancellation. When the
// input is a terminal it is switched to raw mode so a single key press quits
// without Enter.
package dashboard
