package source

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip creates an in-memory archive from name -> content pairs.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestCSVReader_Read(t *testing.T) {
	reader := NewCSVReader(DefaultColumns())

	t.Run("Should read rows with sections", func(t *testing.T) {
		data := "article_title,article_body,section\n" +
			"Intro,\"<h1>Hi</h1><p>Hello, world</p>\",Basics\n" +
			"Setup,Plain text,Advanced\n"
		records, err := reader.Read([]byte(data))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, core.Record{Title: "Intro", Body: "<h1>Hi</h1><p>Hello, world</p>", Section: "Basics", Index: 1}, records[0])
		assert.Equal(t, "Advanced", records[1].Section)
		assert.Equal(t, 2, records[1].Index)
	})

	t.Run("Should treat the section column as optional", func(t *testing.T) {
		records, err := reader.Read([]byte("article_body,article_title\nbody,title\n"))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "title", records[0].Title)
		assert.Equal(t, "body", records[0].Body)
		assert.Empty(t, records[0].Section)
	})

	t.Run("Should tolerate short rows", func(t *testing.T) {
		records, err := reader.Read([]byte("article_title,article_body,section\nOnly title\n"))
		require.NoError(t, err)
		assert.Equal(t, "Only title", records[0].Title)
		assert.Empty(t, records[0].Body)
	})

	t.Run("Should strip a UTF-8 byte order mark", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("article_title,article_body\nA,B\n")...)
		records, err := reader.Read(data)
		require.NoError(t, err)
		assert.Equal(t, "A", records[0].Title)
	})

	t.Run("Should fall back to windows-1252", func(t *testing.T) {
		data := []byte("article_title,article_body\nCaf\xe9,cr\xe8me\n")
		records, err := reader.Read(data)
		require.NoError(t, err)
		assert.Equal(t, "Café", records[0].Title)
		assert.Equal(t, "crème", records[0].Body)
	})

	t.Run("Should report missing columns", func(t *testing.T) {
		_, err := reader.Read([]byte("title,body\nA,B\n"))
		require.ErrorIs(t, err, core.ErrMissingColumns)
		assert.Contains(t, err.Error(), "'article_title' and 'article_body'")
	})

	t.Run("Should report empty input", func(t *testing.T) {
		for _, data := range []string{"", "  \n", "article_title,article_body\n"} {
			_, err := reader.Read([]byte(data))
			assert.ErrorIs(t, err, core.ErrEmptyInput, "input %q", data)
		}
	})

	t.Run("Should honor custom column names", func(t *testing.T) {
		r := NewCSVReader(Columns{Title: "name", Body: "content", Section: "chapter"})
		records, err := r.Read([]byte("name,content,chapter\nN,C,Ch\n"))
		require.NoError(t, err)
		assert.Equal(t, core.Record{Title: "N", Body: "C", Section: "Ch", Index: 1}, records[0])
	})
}

func TestArchiveReader_Read(t *testing.T) {
	t.Run("Should collect pages and images", func(t *testing.T) {
		data := buildZip(t, map[string]string{
			"index.html":            "<html><head><title>Home</title></head><body><p>hi</p></body></html>",
			"guides/install.htm":    "<h1>Install</h1>",
			"guides/untitled.html":  "<p>no title</p>",
			"guides/img/shot.PNG":   "png-bytes",
			"logo.svg":              "<svg/>",
			"notes.txt":             "ignored",
			"__MACOSX/._index.html": "fork",
			".hidden.html":          "<p>hidden</p>",
		})

		archive, err := NewArchiveReader(afero.NewMemMapFs()).Read(context.Background(), data)
		require.NoError(t, err)

		require.Len(t, archive.Records, 3)
		assert.Equal(t, core.Record{Title: "Install", Body: "<h1>Install</h1>", Section: "guides", Index: 1, Source: "guides/install.htm"}, archive.Records[0])
		assert.Equal(t, "untitled", archive.Records[1].Title)
		assert.Equal(t, "Home", archive.Records[2].Title)
		assert.Empty(t, archive.Records[2].Section)

		var names []string
		for _, img := range archive.Images {
			names = append(names, img.Name)
		}
		assert.ElementsMatch(t, []string{"shot.PNG", "logo.svg"}, names)
	})

	t.Run("Should clamp member paths to the input directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		data := buildZip(t, map[string]string{"../../escape.html": "<p>x</p>"})
		archive, err := NewArchiveReader(fs).Read(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, "escape.html", archive.Records[0].Source)

		exists, err := afero.Exists(fs, "input/escape.html")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Should reject archives without pages", func(t *testing.T) {
		data := buildZip(t, map[string]string{"a.png": "x"})
		_, err := NewArchiveReader(afero.NewMemMapFs()).Read(context.Background(), data)
		assert.ErrorIs(t, err, core.ErrEmptyInput)
	})

	t.Run("Should reject data that is not a zip", func(t *testing.T) {
		_, err := NewArchiveReader(afero.NewMemMapFs()).Read(context.Background(), []byte("not a zip"))
		assert.ErrorIs(t, err, core.ErrMalformedInput)
	})

	t.Run("Should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		data := buildZip(t, map[string]string{"a.html": "<p>x</p>"})
		_, err := NewArchiveReader(afero.NewMemMapFs()).Read(ctx, data)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDetectKind(t *testing.T) {
	zipData := buildZip(t, map[string]string{"a.html": "<p>x</p>"})

	tests := []struct {
		name    string
		file    string
		data    []byte
		want    Kind
		wantErr error
	}{
		{name: "csv by extension", file: "rows.CSV", data: []byte("a,b"), want: KindCSV},
		{name: "zip by extension", file: "site.zip", data: zipData, want: KindArchive},
		{name: "zip by content", file: "upload", data: zipData, want: KindArchive},
		{name: "text by content", file: "upload", data: []byte("article_title,article_body\nA,B\n"), want: KindCSV},
		{name: "empty", file: "rows.csv", data: nil, wantErr: core.ErrEmptyInput},
		{name: "binary", file: "image", data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), wantErr: core.ErrUnsupportedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(tt.file, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsImageAsset(t *testing.T) {
	assert.True(t, IsImageAsset("a/b/photo.JPEG"))
	assert.True(t, IsImageAsset("logo.svg"))
	assert.False(t, IsImageAsset("page.html"))
	assert.False(t, IsImageAsset("archive.zip"))
}
