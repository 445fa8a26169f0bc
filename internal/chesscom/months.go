package chesscom

import (
	"strconv"
	"strings"
	"time"
)

// MonthKey identifies one monthly archive.
type MonthKey struct {
	Year  int
	Month int
}

// MonthKeyOf returns the key of the month containing t (UTC).
func MonthKeyOf(t time.Time) MonthKey {
	t = t.UTC()
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

// MonthKeys returns the keys of the last n calendar months ending with the
// month containing now. n < 1 yields an empty set.
func MonthKeys(now time.Time, n int) map[MonthKey]struct{} {
	keys := make(map[MonthKey]struct{}, max(n, 0))
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		keys[MonthKeyOf(first.AddDate(0, -i, 0))] = struct{}{}
	}
	return keys
}

// MonthKeyFromURL parses the trailing "{year}/{month}" segments of an archive URL.
func MonthKeyFromURL(u string) (MonthKey, bool) {
	parts := strings.Split(strings.TrimRight(u, "/"), "/")
	if len(parts) < 2 {
		return MonthKey{}, false
	}
	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return MonthKey{}, false
	}
	month, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, false
	}
	return MonthKey{Year: year, Month: month}, true
}
