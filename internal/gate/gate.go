package gate

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
)

const clockLayout = "15:04"

// ClockTime is a time of day with second precision, stored as seconds since midnight.
type ClockTime int

// Clock builds a ClockTime from hour, minute and second.
func Clock(hour, minute, second int) ClockTime {
	return ClockTime(hour*3600 + minute*60 + second)
}

// ClockOf returns the time-of-day reading of t in t's location, truncated to
// the second.
func ClockOf(t time.Time) ClockTime {
	return Clock(t.Hour(), t.Minute(), t.Second())
}

// ParseClock parses an "HH:MM" string.
func ParseClock(value string) (ClockTime, error) {
	parsed, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid clock time, use HH:MM").
			WithDetails(map[string]any{"value": value})
	}
	return ClockOf(parsed), nil
}

func (c ClockTime) String() string {
	h, m, s := int(c)/3600, int(c)%3600/60, int(c)%60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Window is the interval of the day during which manager operations are
// allowed. When Start is after End the window wraps midnight. Both ends are
// inclusive.
type Window struct {
	Start ClockTime
	End   ClockTime
}

// Default is the night-shift window, 23:00 through 06:00.
func Default() Window {
	return Window{Start: Clock(23, 0, 0), End: Clock(6, 0, 0)}
}

// ParseWindow builds a window from two "HH:MM" strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// Permits reports whether now's time of day falls inside the window. The
// comparison keeps sub-second precision, so 06:00:00.5 is past a 06:00 end.
func (w Window) Permits(now time.Time) bool {
	c := ClockOf(now)
	notAfterEnd := c < w.End || (c == w.End && now.Nanosecond() == 0)
	if w.Start <= w.End {
		return c >= w.Start && notAfterEnd
	}
	return c >= w.Start || notAfterEnd
}

// Check returns nil when the window permits now, or a CodeNotPermitted error
// carrying the clock reading.
func (w Window) Check(now time.Time) error {
	if w.Permits(now) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeNotPermitted,
		"operation allowed only between %s and %s, current time is %s", w.Start, w.End, now.Format("15:04:05")).
		WithDetails(map[string]any{
			"current_time": now.Format("15:04:05"),
			"window":       w.String(),
		})
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
