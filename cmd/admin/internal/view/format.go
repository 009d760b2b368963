package view

import (
	"context"
	"strconv"
	"time"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders a won amount with thousand separators.
func FormatAmount(won int64) string {
	s := strconv.FormatInt(won, 10)

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}

		out = append(out, c)
	}

	if neg {
		return "-" + string(out)
	}

	return string(out)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
