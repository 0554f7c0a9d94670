// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sources

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ManuGH/epgimport/internal/catalog"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sportsDoc = `<?xml version="1.0" encoding="utf-8"?>
<sources>
  <channel name="demo">
    <url>http://example.com/demo.channels.xml.gz</url>
  </channel>
  <sourcecat sourcecatname="Sports">
    <source type="gen_xmltv" channels="demo" offset="+0130">
      <description>Sports feed</description>
      <url>http://mirror-a.example.com/sports.xml.gz</url>
      <url> http://mirror-b.example.com/sports.xml.gz </url>
    </source>
  </sourcecat>
</sources>
`

const mixedDoc = `<sources>
  <source channels="local.channels.xml">
    <url>http://x/uncategorized.xml</url>
  </source>
  <sourcecat sourcecatname="News">
    <source type="gen_xmltv" nocheck="1" format="xml.xz">
      <description>News A</description>
      <url>http://x/a.xml.xz</url>
    </source>
    <source nocheck="yes" offset="bogus">
      <description>News B</description>
      <url>http://x/b.xml</url>
    </source>
  </sourcecat>
  <sourcecat sourcecatname="Empty">
  </sourcecat>
  <source>
    <description>Trailing</description>
    <url>http://x/t.xml</url>
  </source>
</sources>
`

func newTestDirectory(t *testing.T, dir string, opts ...Option) *Directory {
	t.Helper()
	cache := catalog.NewCache(
		catalog.WithLogger(zerolog.Nop()),
		catalog.WithCustomChannelsPath(""),
		catalog.WithFilterPath(filepath.Join(dir, "no-filter.conf")),
	)
	opts = append([]Option{WithLogger(zerolog.Nop()), WithPicker(FirstPicker)}, opts...)
	return NewDirectory(dir, cache, opts...)
}

func writeSourceFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestAll_SportsScenario(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "sports.sources.xml", sportsDoc)

	var picked [][]string
	d := newTestDirectory(t, dir, WithPicker(func(urls []string) string {
		picked = append(picked, urls)
		return urls[1]
	}))

	got := Collect(d.All(nil, false))
	require.Len(t, got, 1)
	src := got[0]

	assert.Equal(t, "Sports", src.Category)
	assert.Equal(t, "Sports feed", src.Description)
	assert.Equal(t, DefaultParser, src.Parser)
	assert.Equal(t, DefaultFormat, src.Format)
	assert.Equal(t, 90, src.TimeOffset)
	assert.Equal(t, []string{
		"http://mirror-a.example.com/sports.xml.gz",
		"http://mirror-b.example.com/sports.xml.gz",
	}, src.URLs)
	assert.Equal(t, "http://mirror-b.example.com/sports.xml.gz", src.URL)
	assert.Equal(t, [][]string{src.URLs}, picked)

	require.NotNil(t, src.Channels)
	assert.Equal(t, "demo", src.Channels.Name)
	demo, ok := d.Cache().Get("demo")
	require.True(t, ok)
	assert.Same(t, demo, src.Channels)
	assert.Equal(t, []string{"http://example.com/demo.channels.xml.gz"}, src.Channels.URLs())
}

func TestAll_RandomPickerChoosesACandidate(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "sports.sources.xml", sportsDoc)

	cache := catalog.NewCache(catalog.WithLogger(zerolog.Nop()))
	d := NewDirectory(dir, cache, WithLogger(zerolog.Nop()))

	for i := 0; i < 20; i++ {
		got := Collect(d.All(nil, false))
		require.Len(t, got, 1)
		assert.Contains(t, got[0].URLs, got[0].URL)
	}
}

func TestFile_CategoriesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "mixed.sources.xml", mixedDoc)
	d := newTestDirectory(t, dir)

	var entries []Entry
	for e := range d.File(path, nil, true) {
		entries = append(entries, e)
	}

	type row struct {
		Category    string
		Marker      bool
		Description string
		NoCheck     int
		Offset      int
		Format      string
	}
	var rows []row
	for _, e := range entries {
		r := row{Category: e.Category, Marker: e.IsCategory()}
		if e.Source != nil {
			r.Description = e.Source.Description
			r.NoCheck = e.Source.NoCheck
			r.Offset = e.Source.TimeOffset
			r.Format = e.Source.Format
		}
		rows = append(rows, r)
	}

	want := []row{
		{Category: "", Description: "http://x/uncategorized.xml", Format: "xml"},
		{Category: "News", Marker: true},
		{Category: "News", Description: "News A", NoCheck: 1, Format: "xml.xz"},
		{Category: "News", Description: "News B", Format: "xml"},
		{Category: "Empty", Marker: true},
		{Category: "", Description: "Trailing", Format: "xml"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_ChannelResolution(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "mixed.sources.xml", mixedDoc)
	d := newTestDirectory(t, dir)

	got := Collect(d.File(path, nil, false))
	require.Len(t, got, 4)

	assert.Equal(t, filepath.Join(dir, "local.channels.xml"), got[0].Channels.Name)
	// no channels attribute: <base up to first dot>.channels.xml next to the source file
	assert.Equal(t, filepath.Join(dir, "mixed.channels.xml"), got[1].Channels.Name)
	assert.Same(t, got[1].Channels, got[2].Channels)
	assert.Same(t, got[1].Channels, got[3].Channels)
}

func TestFile_SelectionFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "mixed.sources.xml", mixedDoc)
	d := newTestDirectory(t, dir)

	got := Collect(d.File(path, NewSelection([]string{"News B", "Trailing", "unknown"}), false))
	descs := make([]string, 0, len(got))
	for _, s := range got {
		descs = append(descs, s.Description)
	}
	assert.Equal(t, []string{"News B", "Trailing"}, descs)

	assert.Empty(t, Collect(d.File(path, NewSelection(nil), false)))
}

func TestFile_EarlyStop(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "mixed.sources.xml", mixedDoc)
	d := newTestDirectory(t, dir)

	n := 0
	for range d.File(path, nil, true) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestFile_ReRegistrationKeepsItems(t *testing.T) {
	dir := t.TempDir()
	first := writeSourceFile(t, dir, "a.sources.xml", `<sources><channel name="shared"><url>http://a/c.xml</url></channel></sources>`)
	second := writeSourceFile(t, dir, "b.sources.xml", `<sources><channel name="shared"><url>http://b/c.xml</url><url>http://c/c.xml</url></channel></sources>`)
	mapping := writeSourceFile(t, dir, "dl.xml", `<channels><channel id="x">A</channel></channels>`)
	d := newTestDirectory(t, dir)

	assert.Empty(t, Collect(d.File(first, nil, false)))
	shared, ok := d.Cache().Get("shared")
	require.True(t, ok)
	require.NoError(t, shared.Update(nil, mapping))

	assert.Empty(t, Collect(d.File(second, nil, false)))
	again, _ := d.Cache().Get("shared")
	assert.Same(t, shared, again)
	assert.Equal(t, []string{"http://b/c.xml", "http://c/c.xml"}, again.URLs())
	assert.Equal(t, []string{"A"}, again.Lookup("x"))
}

func TestFile_MalformedKeepsEarlierEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "broken.sources.xml", `<sources>
<source><description>ok</description><url>http://x/ok.xml</url></source>
<source><description>broken</description><url>http://x/b.xml</url></sourc>
</sources>`)
	d := newTestDirectory(t, dir)

	got := Collect(d.File(path, nil, false))
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Description)
}

func TestFile_SourceWithoutURLSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "nourl.sources.xml", `<sources>
<source><description>no url</description></source>
<source><description>fine</description><url>http://x/f.xml</url></source>
</sources>`)
	d := newTestDirectory(t, dir)

	got := Collect(d.File(path, nil, false))
	require.Len(t, got, 1)
	assert.Equal(t, "fine", got[0].Description)
}

func TestFile_LogsCategoryAndPickedMirror(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	dir := t.TempDir()
	path := writeSourceFile(t, dir, "logged.sources.xml", `<sources>
<sourcecat sourcecatname="Movies">
<source><description>no url</description></source>
<source><description>film</description><url>http://x/film.xml</url></source>
</sourcecat>
</sources>`)
	var buf bytes.Buffer
	d := newTestDirectory(t, dir, WithLogger(zerolog.New(&buf)))

	require.Len(t, Collect(d.File(path, nil, false)), 1)
	out := buf.String()
	assert.Contains(t, out, `"category":"Movies","source":"no url","message":"source without url skipped"`)
	assert.Contains(t, out, `"url":"http://x/film.xml"`)
	assert.Contains(t, out, "source mirror picked")
}

func TestAll_SkipsBadFilesAndOtherSuffixes(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "good.sources.xml", sportsDoc)
	writeSourceFile(t, dir, "bad.sources.xml", "<sources><source>")
	writeSourceFile(t, dir, "ignored.xml", sportsDoc)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.sources.xml"), 0o755))
	d := newTestDirectory(t, dir)

	got := Collect(d.All(nil, false))
	require.Len(t, got, 1)
	assert.Equal(t, "Sports feed", got[0].Description)
}

func TestAll_MissingDirectoryYieldsNothing(t *testing.T) {
	d := newTestDirectory(t, filepath.Join(t.TempDir(), "missing"))
	assert.Empty(t, Collect(d.All(nil, true)))
}

func TestGroupByCategory(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "mixed.sources.xml", mixedDoc)
	d := newTestDirectory(t, dir)

	groups := GroupByCategory(d.File(path, nil, true))
	names := make([]string, 0, len(groups))
	counts := make([]int, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Category)
		counts = append(counts, len(g.Sources))
	}
	assert.Equal(t, []string{"", "News", "Empty"}, names)
	assert.Equal(t, []int{2, 2, 0}, counts)
}

func TestAll_SameSourcesAcrossSelectionPasses(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "mixed.sources.xml", mixedDoc)
	writeSourceFile(t, dir, "sports.sources.xml", sportsDoc)
	d := newTestDirectory(t, dir)

	type key struct {
		Description, Parser, Format string
		NoCheck                     int
		URLs                        []string
		Channels                    string
	}
	keys := func(srcs []*Source) []key {
		out := make([]key, 0, len(srcs))
		for _, s := range srcs {
			out = append(out, key{s.Description, s.Parser, s.Format, s.NoCheck, s.URLs, s.Channels.Name})
		}
		return out
	}

	all := keys(Collect(d.All(nil, false)))
	descs := make([]string, 0, len(all))
	for _, k := range all {
		descs = append(descs, k.Description)
	}
	again := keys(Collect(d.All(NewSelection(descs), false)))

	sortKeys := cmpopts.SortSlices(func(a, b key) bool { return a.Description < b.Description })
	if diff := cmp.Diff(all, again, sortKeys); diff != "" {
		t.Errorf("selection pass differs (-all +selected):\n%s", diff)
	}
	assert.True(t, slices.Contains(descs, "Sports feed"))
}
