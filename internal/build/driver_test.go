package build

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnituy18/tmake/internal/erb"
	"github.com/gnituy18/tmake/internal/logging"
)

func run(t *testing.T, d *Driver) *Report {
	t.Helper()
	report, err := d.Run(context.Background())
	require.NoError(t, err)
	return report
}

func read(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func touch(t *testing.T, fs afero.Fs, path, text string, at time.Time) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	require.NoError(t, fs.Chtimes(path, at, at))
}

var siteFiles = map[string]string{
	"views/index.erb":          "<%# partial \"header\" %><p><%= title %></p>\n",
	"views/blog/post.html":     "<article>\n<h1 data-tf=\"#title\">Sample</h1>\n</article>\n",
	"views/blog/post.otm":      "#title\n~= post.Title\n",
	"views/partial/header.erb": "<header>site</header>",
	"views/README.md":          "not a template",
}

func TestRun(t *testing.T) {
	fs := newFS(t, siteFiles)
	report := run(t, New(fs, testConfig(), logging.Discard()))

	assert.Equal(t, 2, report.Units)
	assert.ElementsMatch(t, []string{"blog_postView", "views_indexView"}, report.Generated)
	assert.ElementsMatch(t, report.Generated, report.Written)
	assert.Empty(t, report.UpToDate)
	assert.Zero(t, report.Failed())
	assert.True(t, report.ManifestWritten)

	index := read(t, fs, "gen/views_indexView.go")
	assert.Contains(t, index, "// Code generated by tmake from index.erb. DO NOT EDIT.")
	assert.Contains(t, index, "package views")
	assert.Contains(t, index, "func views_indexView(v *view.Context) {")
	assert.Contains(t, index, `v.Write("<header>site</header><p>")`)
	assert.Contains(t, index, "v.Eh(title)")

	post := read(t, fs, "gen/blog_postView.go")
	assert.Contains(t, post, "<h1>")
	assert.Contains(t, post, "v.Eh(post.Title)")
	assert.NotContains(t, post, "Sample")

	m, err := ReadManifest(fs, "gen/"+ManifestFile)
	require.NoError(t, err)
	u, ok := m.Lookup("views_indexView")
	require.True(t, ok)
	assert.Equal(t, "views_indexView.go", u.Artifact)
	assert.Equal(t, []string{"index.erb", "partial/header.erb"}, u.Sources)
	u, ok = m.Lookup("blog_postView")
	require.True(t, ok)
	assert.Equal(t, []string{"blog/post.html", "blog/post.otm"}, u.Sources)
}

func TestRunIdempotent(t *testing.T) {
	fs := newFS(t, siteFiles)
	d := New(fs, testConfig(), logging.Discard())
	run(t, d)
	first := read(t, fs, "gen/views_indexView.go")
	manifest := read(t, fs, "gen/"+ManifestFile)

	report := run(t, d)
	assert.Empty(t, report.Generated)
	assert.Empty(t, report.Written)
	assert.ElementsMatch(t, []string{"blog_postView", "views_indexView"}, report.UpToDate)
	assert.False(t, report.ManifestWritten)
	assert.Equal(t, first, read(t, fs, "gen/views_indexView.go"))
	assert.Equal(t, manifest, read(t, fs, "gen/"+ManifestFile))
}

func TestRunStaleSources(t *testing.T) {
	later := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		path string
		text string
		unit string
		want string
	}{
		{"template", "views/index.erb", "<p><%== body %></p>", "views_indexView", "v.Echo(body)"},
		{"partial", "views/partial/header.erb", "<header>new</header>", "views_indexView", "<header>new</header>"},
		{"logic", "views/blog/post.otm", "#title\n~== post.HTML\n", "blog_postView", "v.Echo(post.HTML)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFS(t, siteFiles)
			d := New(fs, testConfig(), logging.Discard())
			run(t, d)

			touch(t, fs, tt.path, tt.text, later)
			report := run(t, d)
			assert.Equal(t, []string{tt.unit}, report.Generated)
			assert.Equal(t, []string{tt.unit}, report.Written)
			assert.Len(t, report.UpToDate, 1)
			assert.Contains(t, read(t, fs, "gen/"+tt.unit+".go"), tt.want)
		})
	}
}

func mtimeOf(t *testing.T, fs afero.Fs, path string) time.Time {
	t.Helper()
	info, err := fs.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

func TestRunTouchedWithoutChange(t *testing.T) {
	fs := newFS(t, siteFiles)
	d := New(fs, testConfig(), logging.Discard())
	run(t, d)

	old := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("gen/views_indexView.go", old, old))
	later := time.Now().Add(time.Hour)
	require.NoError(t, fs.Chtimes("views/index.erb", later, later))

	report := run(t, d)
	assert.Equal(t, []string{"views_indexView"}, report.Generated)
	assert.Empty(t, report.Written)
	assert.True(t, report.ManifestWritten)
	assert.True(t, mtimeOf(t, fs, "gen/views_indexView.go").Equal(old))

	report = run(t, d)
	assert.Empty(t, report.Generated)
	assert.ElementsMatch(t, []string{"blog_postView", "views_indexView"}, report.UpToDate)
	assert.False(t, report.ManifestWritten)
	assert.True(t, mtimeOf(t, fs, "gen/views_indexView.go").Equal(old))
}

func TestRunLeavesUnchangedManifestAlone(t *testing.T) {
	fs := newFS(t, siteFiles)
	d := New(fs, testConfig(), logging.Discard())
	run(t, d)

	old := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("gen/"+ManifestFile, old, old))

	report := run(t, d)
	assert.False(t, report.ManifestWritten)
	assert.True(t, mtimeOf(t, fs, "gen/"+ManifestFile).Equal(old))
}

func TestRunNewLogicFile(t *testing.T) {
	fs := newFS(t, map[string]string{
		"views/page.html": `<p data-tf="#msg">hi</p>`,
	})
	d := New(fs, testConfig(), logging.Discard())
	run(t, d)
	assert.Contains(t, read(t, fs, "gen/views_pageView.go"), `v.Write("<p>hi</p>")`)

	touch(t, fs, "views/page.otm", "#msg\n~= msg\n", time.Now().Add(time.Hour))
	report := run(t, d)
	assert.Equal(t, []string{"views_pageView"}, report.Generated)
	assert.Contains(t, read(t, fs, "gen/views_pageView.go"), "v.Eh(msg)")
}

func TestRunUnitErrors(t *testing.T) {
	fs := newFS(t, map[string]string{
		"views/a/index.erb":  "<p>a</p>",
		"views/a/index.html": "<p>b</p>",
		"views/bad.erb":      "<p><% unclosed</p>",
		"views/ok.erb":       "<p>ok</p>",
	})
	report := run(t, New(fs, testConfig(), logging.Discard()))

	assert.Equal(t, 4, report.Units)
	assert.ElementsMatch(t, []string{"a_indexView", "views_okView"}, report.Generated)
	assert.Equal(t, 2, report.Failed())
	assert.ErrorIs(t, report.Errors.ErrorOrNil(), ErrDuplicateUnit)

	var mt *erb.MalformedTagError
	require.ErrorAs(t, report.Errors.ErrorOrNil(), &mt)
	assert.Equal(t, 1, mt.Line)

	exists, err := afero.Exists(fs, "gen/views_badView.go")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunFailureKeepsManifestEntry(t *testing.T) {
	fs := newFS(t, siteFiles)
	d := New(fs, testConfig(), logging.Discard())
	run(t, d)
	before := read(t, fs, "gen/views_indexView.go")

	touch(t, fs, "views/index.erb", "<p><%= title", time.Now().Add(time.Hour))
	report := run(t, d)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, before, read(t, fs, "gen/views_indexView.go"))

	m, err := ReadManifest(fs, "gen/"+ManifestFile)
	require.NoError(t, err)
	_, ok := m.Lookup("views_indexView")
	assert.True(t, ok)
}

func TestRunUnformattable(t *testing.T) {
	fs := newFS(t, map[string]string{
		"views/broken.erb": "<% if { %>x",
	})
	report := run(t, New(fs, testConfig(), logging.Discard()))
	assert.Zero(t, report.Failed())
	assert.Equal(t, []string{"views_brokenView"}, report.Written)
	assert.Contains(t, read(t, fs, "gen/views_brokenView.go"), "if {\n")
}

func TestRunMissingPartial(t *testing.T) {
	fs := newFS(t, map[string]string{
		"views/index.erb": `<%# partial "nope" %>`,
	})
	report := run(t, New(fs, testConfig(), logging.Discard()))
	assert.Equal(t, 1, report.Failed())
	assert.ErrorIs(t, report.Errors.ErrorOrNil(), ErrUnreadable)
}

func TestRunMissingRoot(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), testConfig(), logging.Discard()).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoTemplateRoot)
}

func TestRunCanceled(t *testing.T) {
	fs := newFS(t, siteFiles)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(fs, testConfig(), logging.Discard()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
