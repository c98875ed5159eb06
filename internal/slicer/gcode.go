package slicer

import (
	"bufio"
	"strings"
)

const printTimeMarker = "; estimated printing time"

// UnknownPrintTime is reported when the G-code carries no time annotation.
const UnknownPrintTime = "Unknown"

// ExtractPrintTime scans G-code for the engine's estimated-time annotation
// and returns the trimmed value after the "=" on the first matching line.
// Later occurrences are ignored.
func ExtractPrintTime(gcode string) string {
	scanner := bufio.NewScanner(strings.NewReader(gcode))
	for scanner.Scan() {
		line := scanner.Text()

		idx := strings.Index(line, printTimeMarker)
		if idx < 0 {
			continue
		}

		rest := line[idx+len(printTimeMarker):]
		if eq := strings.Index(rest, "="); eq >= 0 {
			return strings.TrimSpace(rest[eq+1:])
		}

		return UnknownPrintTime
	}

	return UnknownPrintTime
}
