// ABOUTME: Version and product identification constants
// ABOUTME: Reported by the CLI and the hardware dump
package version

const (
	// Version is the release version.
	Version = "0.3.0"

	// Product names the playback tool.
	Product = "Resonate HAL Player"

	// Manufacturer identifies who builds it.
	Manufacturer = "Resonate"
)
