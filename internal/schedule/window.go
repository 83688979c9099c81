package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeOfDay is minutes since midnight. The external representation is
// zero-padded 24-hour "HH:MM".
type TimeOfDay int

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// At anchors the time-of-day onto a calendar date.
func (t TimeOfDay) At(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidInput, s)
	}
	if len(s) != 5 || s[2] != ':' || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidInput, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// Window is a recurring daily interval during which a doctor accepts
// appointments. Invariant: End > Start.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// ParseWindow parses the external "HH:MM-HH:MM" form.
func ParseWindow(s string) (Window, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: window %q", ErrInvalidInput, s)
	}
	start, err := ParseTimeOfDay(lo)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseTimeOfDay(hi)
	if err != nil {
		return Window{}, err
	}
	if end <= start {
		return Window{}, fmt.Errorf("%w: window %q ends before it starts", ErrInvalidInput, s)
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindows parses a doctor's declared window list. Malformed
// entries are dropped, never fatal. The result is deduplicated and
// sorted by start time.
func ParseWindows(raw []string) []Window {
	seen := make(map[Window]bool, len(raw))
	out := make([]Window, 0, len(raw))
	for _, s := range raw {
		w, err := ParseWindow(s)
		if err != nil || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}
