package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToHTML_RendersBasicMarkdown(t *testing.T) {
	html, err := ToHTML([]byte("# Heading\n\nHello **world**\n"))
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1 id=\"heading\">Heading</h1>")
	require.Contains(t, string(html), "<strong>world</strong>")
}

func TestToHTML_RendersGFMTables(t *testing.T) {
	html, err := ToHTML([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, string(html), "<table>")
}

func TestExtractLinks_FindsInlineImageAndReference(t *testing.T) {
	body := []byte(`
[inline](/posts/foo/)
![img](/img/pic.png)
[ref][r1]

[r1]: /posts/bar/
`)
	links, err := ExtractLinks(body)
	require.NoError(t, err)

	dests := map[LinkKind][]string{}
	for _, l := range links {
		dests[l.Kind] = append(dests[l.Kind], l.Destination)
	}
	require.Contains(t, dests[LinkKindInline], "/posts/foo/")
	require.Contains(t, dests[LinkKindImage], "/img/pic.png")
	require.Contains(t, dests[LinkKindInline], "/posts/bar/")
	require.Contains(t, dests[LinkKindReferenceDefinition], "/posts/bar/")
}

func TestExtractLinks_EmptyBody(t *testing.T) {
	links, err := ExtractLinks(nil)
	require.NoError(t, err)
	require.Empty(t, links)
}
