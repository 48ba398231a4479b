package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"br inside strong moves out",
			"<strong>Requirements<br></strong>",
			"<strong>Requirements</strong><br>",
		},
		{
			"multiple br inside strong",
			"<strong>Title<br><br/></strong>",
			"<strong>Title</strong><br><br/>",
		},
		{
			"br inside em moves out",
			"<em>note<br></em>",
			"<em>note</em><br>",
		},
		{
			"span wrapping only a br collapses",
			"<span> <br/> </span>",
			"<br>",
		},
		{
			"clean markup untouched",
			"<p><strong>Role</strong></p>",
			"<p><strong>Role</strong></p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FixHTML(tt.in))
		})
	}
}

func TestFixMD(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"padding trimmed inside bold", "** text **", "**text**"},
		{"space inserted after bold", "**text**next", "**text** next"},
		{"space inserted after italic", "*text*next", "*text* next"},
		{"merged bold spans split", "**a****b**", "**a**\n\n**b**"},
		{"already clean", "**bold** and *italic* words", "**bold** and *italic* words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FixMD(tt.in))
		})
	}
}

func TestConvertBoldSpacing(t *testing.T) {
	c := New()
	md, err := c.Convert("<strong> text</strong>next")
	require.NoError(t, err)
	assert.Equal(t, "**text** next", md)
}

func TestConvertHeadingsAndBullets(t *testing.T) {
	c := New()
	md, err := c.Convert("<h2>Requirements</h2><ul><li>Go</li><li>SQL</li></ul>")
	require.NoError(t, err)
	assert.Contains(t, md, "## Requirements")
	assert.Contains(t, md, "- Go")
	assert.Contains(t, md, "- SQL")
}

func TestConvertUnescaped(t *testing.T) {
	c := New()
	md, err := c.ConvertUnescaped("&lt;p&gt;We build &amp;amp; ship.&lt;/p&gt;")
	require.NoError(t, err)
	assert.Contains(t, md, "We build & ship.")
}

func TestConvertDocumentStripsChrome(t *testing.T) {
	c := New()
	page := `<html><head><style>.x{}</style></head><body>
		<nav>Home | Jobs</nav>
		<article><h1>Platform Engineer</h1><p>Build pipelines.</p></article>
		<footer>© 2025</footer>
		<script>track()</script>
	</body></html>`

	md, err := c.ConvertDocument(page)
	require.NoError(t, err)
	assert.Contains(t, md, "# Platform Engineer")
	assert.Contains(t, md, "Build pipelines.")
	assert.NotContains(t, md, "Home | Jobs")
	assert.NotContains(t, md, "track()")
	assert.NotContains(t, md, "© 2025")
}
