// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.1.0"

// Milestones:
// 0.1.0 - Wheel layout, aspect classifier, TUI wheel/placements/aspects views, chart and serve commands
