package main

import (
	"strconv"
	"time"
)

// humanDuration formats d as hours, minutes and seconds. Durations under a second are
// shown in milliseconds
func humanDuration(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}

	str := ""
	if h := d / time.Hour; h >= 1 {
		str += strconv.FormatInt(int64(h), 10) + "h"
		d %= time.Hour
	}

	if m := d / time.Minute; m >= 1 {
		str += strconv.FormatInt(int64(m), 10) + "m"
		d %= time.Minute
	}

	if s := d / time.Second; s >= 1 {
		str += strconv.FormatInt(int64(s), 10) + "s"
	}

	return str
}
