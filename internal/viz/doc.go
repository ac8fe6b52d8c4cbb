// Package viz draws designs and searches in the terminal.
//
//   - [Report]: lipgloss summary of a murphy-error breakdown and its sweep
//   - [PenaltyChart], [SweepChart]: asciigraph line charts
//   - [Canvas]: Braille canvas that draws resolved poses
//   - [Watch]: Bubble Tea view of a running search
//
// # Key Bindings (watch)
//
//	←/→ - Step through the swept poses
//	T   - Cycle color themes
//	Q   - Stop the search and quit
package viz
