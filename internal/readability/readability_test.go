package readability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const article = `<html><head><title>Season</title></head><body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<article>
<h1>Spring season</h1>
<p>Our spring season opens on 14 March 2026 with the Warsaw Philharmonic Orchestra.
The conductor: Anna Nowak leads a programme of symphonies and overtures that has been
carefully prepared for the audience over many months of rehearsals.</p>
<p>Beethoven: Symphony No. 5 closes the evening, followed by a reception in the foyer
for all subscribers and guests of the philharmonic hall.</p>
</article>
</body></html>`

func TestExtractorText(t *testing.T) {
	t.Parallel()

	text, err := New(0).Text([]byte(article), "https://venue.example/season")
	require.NoError(t, err)
	require.Contains(t, text, "14 March 2026")
	require.Contains(t, text, "Beethoven: Symphony No. 5")
}

func TestExtractorTextTruncates(t *testing.T) {
	t.Parallel()

	text, err := New(20).Text([]byte(article), "https://venue.example/season")
	require.NoError(t, err)
	require.LessOrEqual(t, len([]rune(text)), 20)
	require.NotEmpty(t, strings.TrimSpace(text))
}

func TestExtractorTextBadURL(t *testing.T) {
	t.Parallel()

	_, err := New(0).Text([]byte(article), "://bad")
	require.Error(t, err)
}
