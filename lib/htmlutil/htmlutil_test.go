package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const page = `<html>
<head>
<title>Levain Bakery</title>
<style>body { color: red; }</style>
<script>window.analytics = {};</script>
</head>
<body>
	<h1>Levain Bakery</h1>
	<p>  Fresh cookies   daily.  </p>

	<script>trackPageView();</script>
	<div>Open 8am - 7pm</div>
</body>
</html>`

func TestExtractText(t *testing.T) {
	text := ExtractText(page)

	require.Contains(t, text, "Levain Bakery")
	require.Contains(t, text, "Fresh cookies")
	require.Contains(t, text, "Open 8am - 7pm")

	require.NotContains(t, text, "analytics")
	require.NotContains(t, text, "trackPageView")
	require.NotContains(t, text, "color: red")

	for _, line := range strings.Split(text, "\n") {
		require.NotEmpty(t, line)
		require.Equal(t, strings.Trim(line, " \t"), line)
	}
}

func TestExtractTextIdempotentInput(t *testing.T) {
	require.Equal(t, ExtractText(page), ExtractText(page))
}

func TestExtractTextMalformed(t *testing.T) {
	// never panics or errors, worst case passes the text through
	out := ExtractText("<div><p>unclosed tags<span>nested")
	require.Contains(t, out, "unclosed tags")
	require.Contains(t, out, "nested")

	require.Equal(t, "plain text", ExtractText("plain text"))
	require.Equal(t, "", ExtractText(""))
}
