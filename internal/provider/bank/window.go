package bank

import (
	"net/url"
	"time"
)

// WindowDays is the widest statement range the provider accepts per request
const WindowDays = 90

type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) query() url.Values {
	q := url.Values{}
	q.Set("dataInicio", w.Start.Format(dateLayout))
	q.Set("dataFim", w.End.Format(dateLayout))
	return q
}

// Days counts both endpoints
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// SplitWindows cuts [from, to] into consecutive windows of at most
// WindowDays calendar days. Each window starts the day after the previous
// one ends.
func SplitWindows(from, to time.Time) []Window {
	start, end := day(from), day(to)
	var windows []Window
	for !start.After(end) {
		wEnd := start.AddDate(0, 0, WindowDays-1)
		if wEnd.After(end) {
			wEnd = end
		}
		windows = append(windows, Window{Start: start, End: wEnd})
		start = wEnd.AddDate(0, 0, 1)
	}
	return windows
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
