package slug_test

import (
	"testing"

	"worklens/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"0b6f1c2e-93aa-4d7e-bf11-0f7bbf0a9d10", 8, "0b6f1c2e"},
		{"Deep Work: Q3 Report", 0, "deep-work-q3-report"},
		{"ab-cd-ef", 3, "ab"},
		{"  ---  ", 8, "session"},
	}
	for _, tc := range cases {
		if got := slug.Make(tc.in, tc.max); got != tc.want {
			t.Errorf("Make(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
