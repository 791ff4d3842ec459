package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_Markdown(t *testing.T) {
	t.Run("Should group entries by section in first-seen order", func(t *testing.T) {
		idx := New()
		idx.Add("Guides", "Install", "guides/install.md")
		idx.Add("Reference", "CLI", "reference/cli.md")
		idx.Add("Guides", "Upgrade", "guides/upgrade.md")

		want := "# Summary\n\n" +
			"## Guides\n\n" +
			"* [Install](guides/install.md)\n" +
			"* [Upgrade](guides/upgrade.md)\n\n" +
			"## Reference\n\n" +
			"* [CLI](reference/cli.md)\n\n"
		assert.Equal(t, want, idx.Markdown())
		assert.Equal(t, 3, idx.Len())
		assert.Equal(t, []string{"Guides", "Reference"}, idx.Sections())
	})

	t.Run("Should list root entries before sections", func(t *testing.T) {
		var idx Index
		idx.Add("Guides", "Install", "guides/install.md")
		idx.Add("", "Readme", "readme.md")

		want := "# Summary\n\n" +
			"* [Readme](readme.md)\n\n" +
			"## Guides\n\n" +
			"* [Install](guides/install.md)\n\n"
		assert.Equal(t, want, idx.Markdown())
		assert.Equal(t, []Entry{{Title: "Readme", Path: "readme.md"}}, idx.Entries(""))
	})

	t.Run("Should escape link syntax in titles and paths", func(t *testing.T) {
		idx := New()
		idx.Add("", "Plan [draft]", "plans/plan (v2).md")

		want := "# Summary\n\n" +
			"* [Plan \\[draft\\]](plans/plan%20\\(v2\\).md)\n\n"
		assert.Equal(t, want, idx.Markdown())
		assert.Equal(t, "Plan [draft]", idx.Entries("")[0].Title)
	})

	t.Run("Should render an empty index", func(t *testing.T) {
		assert.Equal(t, "# Summary\n\n", New().Markdown())
		assert.Zero(t, New().Len())
	})
}
