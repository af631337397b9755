package ams

import (
	"testing"
	"time"
)

func TestISODuration(t *testing.T) {
	cases := map[time.Duration]string{
		10 * time.Minute: "PT10M",
		time.Hour + 30*time.Minute + 5*time.Second: "PT1H30M5S",
		25 * time.Hour:          "PT25H",
		0:                       "PT0S",
		1500 * time.Millisecond: "PT2S",
	}
	for d, want := range cases {
		if got := isoDuration(d); got != want {
			t.Errorf("isoDuration(%v) = %s, want %s", d, got, want)
		}
	}
}
