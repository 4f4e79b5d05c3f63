package core

import (
	"errors"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"", LogLevelInfo},
		{"warning", LogLevelWarn},
		{" error ", LogLevelError},
		{"fatal", LogLevelFatal},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLogLevel("verbose"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ParseLogLevel(verbose) error = %v, want ErrInvalidParameter", err)
	}
}

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.016)
	}
	if got := m.FrameTime(); got < 15.99 || got > 16.01 {
		t.Errorf("FrameTime = %v, want 16", got)
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	// 0.25s per frame, the fifth update crosses one second.
	for i := 0; i < 5; i++ {
		m.Update(0.25)
	}
	if got := m.FPS(); got != 4 {
		t.Errorf("FPS = %v, want 4", got)
	}
}

func TestClockElapsed(t *testing.T) {
	c := NewClock()
	c.Update()
	if c.Elapsed() != 0 {
		t.Errorf("Elapsed on stopped clock = %v, want 0", c.Elapsed())
	}
	c.Start()
	c.Update()
	if c.Elapsed() < 0 {
		t.Errorf("Elapsed = %v, want >= 0", c.Elapsed())
	}
}
