package service

import (
	"strings"
	"testing"

	capturedto "worklens/internal/modules/capture/dto"
)

func TestPromptsRender(t *testing.T) {
	t.Parallel()
	cases := []struct {
		base string
		data any
		want []string
	}{
		{
			base: "short",
			data: shortPrompt{WindowSeconds: 30, Narrative: "The user was on window class 'a'.", Totals: capturedto.Counts{Keys: 4}, Previous: []string{"before"}, ScreenshotAvailable: true},
			want: []string{"30 seconds", "4 keys", "- before", "screenshot"},
		},
		{
			base: "medium",
			data: mediumPrompt{WindowSeconds: 30, FullSeconds: 300, LatestSpecial: "earlier summary"},
			want: []string{"300 seconds", "No window changes were recorded.", "earlier summary"},
		},
		{
			base: "session",
			data: sessionPrompt{SessionSeconds: 125.4, Granularity: "30 seconds", Analyses: []string{"one", "two"}, CustomPrompt: "be brief"},
			want: []string{"125 seconds", "[1] one", "[2] two", "be brief"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.base, func(t *testing.T) {
			t.Parallel()
			system, user, err := renderPair(tc.base, tc.data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			joined := system + "\n" + user
			for _, want := range tc.want {
				if !strings.Contains(joined, want) {
					t.Fatalf("missing %q in:\n%s", want, joined)
				}
			}
		})
	}
}
