package recurring

import (
	"fmt"

	cal "github.com/teemow/calslack/internal/calendar"
)

// BasicUTCLayout is the compact UTC form used by instance ids and UNTIL values.
const BasicUTCLayout = "20060102T150405Z"

// FormatInstanceID derives the id of one occurrence of a recurring series from
// the master id and the occurrence's original start. A naive originalStart is
// resolved in tz.
func FormatInstanceID(masterID, originalStart, tz string) (string, error) {
	t, err := cal.ParseDateTime(originalStart, tz)
	if err != nil {
		return "", fmt.Errorf("invalid originalStartTime %q: %w", originalStart, err)
	}
	return masterID + "_" + t.UTC().Format(BasicUTCLayout), nil
}
