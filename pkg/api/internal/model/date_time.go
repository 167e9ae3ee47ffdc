package model

import (
	"time"
)

const dateTimeLayout = "2006-01-02 15:04:05"

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeLayout)
}
