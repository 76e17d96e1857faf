package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return d
}

func TestBlockTextSeparatesBlocks(t *testing.T) {
	t.Parallel()

	d := doc(t, `<div class="concert-item"><h3>Winter Gala</h3><span class="date">12/25/2025</span>`+
		`<p>conductor:   Jane Doe</p><script>var x = 1;</script><p>program: Beethoven</p></div>`)
	got := BlockText(d.Find("div.concert-item"))
	require.Equal(t, "Winter Gala\n12/25/2025\nconductor: Jane Doe\nprogram: Beethoven", got)
}

func TestTruncateAndEllipsize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Łódź", Truncate("Łódź Philharmonic", 4))
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "", Truncate("x", 0))
	require.Equal(t, "Koncert...", Ellipsize("Koncert symfoniczny", 10))
	require.Equal(t, "Koncert", Ellipsize("Koncert", 10))
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	base := "https://filharmonia.pl/repertuar/kalendarz"
	require.Equal(t, "https://filharmonia.pl/koncert/1", ResolveURL(base, "/koncert/1"))
	require.Equal(t, "https://filharmonia.pl/repertuar/2", ResolveURL(base, "2"))
	require.Equal(t, "https://other.example/x", ResolveURL(base, "https://other.example/x"))
	require.Equal(t, "", ResolveURL(base, ""))
	require.Equal(t, "", ResolveURL(base, "javascript:void(0)"))
}

func TestWordIndex(t *testing.T) {
	t.Parallel()

	require.True(t, ContainsWord("Bach: Mass in B minor", "Bach"))
	require.False(t, ContainsWord("Offenbach overtures", "Bach"))
	require.False(t, ContainsWord("Reichstag", "Reich"))
	require.Equal(t, 10, WordIndex("Offenbach Bach", "Bach"))
	require.Equal(t, -1, WordIndex("anything", ""))
}

func TestFoldKeyAndNameCase(t *testing.T) {
	t.Parallel()

	require.Equal(t, "koncert lutoslawski", FoldKey("  Koncert   LUTOSŁAWSKI "))
	require.Equal(t, "dvorak", FoldKey("Dvořák"))
	require.Equal(t, "Jane Doe", NameCase("jane doe"))
	require.Equal(t, "Jan McDonald", NameCase("Jan McDonald"))
}

func TestClassIDAndClean(t *testing.T) {
	t.Parallel()

	d := doc(t, `<div class="Event-Item" id="Concert-1">x</div>`)
	require.Equal(t, "event-item concert-1", ClassID(d.Find("div")))
	require.Equal(t, "a b c", Clean(" a\n\tb   c "))
	require.True(t, ContainsAny("menu home", []string{"login", "home"}))
}
