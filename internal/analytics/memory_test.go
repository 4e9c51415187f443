package analytics

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{int(2.25 * 1024 * 1024), "2.25 MB"},
		{1024 * 1024 * 1024, "1 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestMintSessionIDShape(t *testing.T) {
	agg, _ := newTestAggregator(t)
	sess, _ := agg.StartSession()

	// "session-<millis>-<suffix>": three dash-separated parts.
	parts := 0
	for _, r := range sess.ID {
		if r == '-' {
			parts++
		}
	}
	if parts != 2 {
		t.Fatalf("expected session-<millis>-<suffix>, got %q", sess.ID)
	}
}
