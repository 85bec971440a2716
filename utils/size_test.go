package utils

import "testing"

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  int64
		expect string
	}{
		{name: "zero", input: 0, expect: "0 B"},
		{name: "bytes", input: 512, expect: "512 B"},
		{name: "exact kilobyte", input: 1024, expect: "1 KB"},
		{name: "fractional kilobyte", input: 1536, expect: "1.5 KB"},
		{name: "large kilobytes drop decimals", input: 20 * 1024, expect: "20 KB"},
		{name: "megabytes", input: 5 * 1024 * 1024, expect: "5 MB"},
		{name: "gigabytes", input: 3 * 1024 * 1024 * 1024 / 2, expect: "1.5 GB"},
		{name: "negative", input: -1, expect: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatSize(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
