package detector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/concert-crawler/internal/concert"
)

func TestHeuristicShouldPromote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page concert.Page
		want bool
	}{
		{
			name: "empty body",
			page: concert.Page{StatusCode: 200, Body: []byte("  ")},
			want: true,
		},
		{
			name: "next.js shell",
			page: concert.Page{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)},
			want: true,
		},
		{
			name: "script heavy short page",
			page: concert.Page{StatusCode: 200, Body: []byte(`<html><script>var a=1;</script><p>t</p></html>`)},
			want: true,
		},
		{
			name: "server rendered calendar",
			page: concert.Page{StatusCode: 200, Body: []byte(`<div id="__next"><article class="item-calendar"></article></div>`)},
			want: false,
		},
		{
			name: "plain listing",
			page: concert.Page{StatusCode: 200, Body: []byte(`<html><body><h3>Winter Gala</h3><p>12/25/2025</p></body></html>`)},
			want: false,
		},
		{
			name: "non 200",
			page: concert.Page{StatusCode: 404, Body: []byte("not found")},
			want: false,
		},
	}

	h := NewHeuristic(1000, 0)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, h.ShouldPromote(tc.page))
		})
	}
}

func TestNewHeuristicDefaults(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0, 150)
	require.Equal(t, 2048, h.BodyLengthThreshold)
	require.Equal(t, 25, h.ScriptPercent)
}

func TestScriptCoverage(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, scriptCoverage(""))
	require.Equal(t, 0, scriptCoverage("<p>no scripts</p>"))
	require.Equal(t, 100, scriptCoverage("<script>x</script>"))
	require.Equal(t, 100, scriptCoverage("<script>unterminated"))
}
