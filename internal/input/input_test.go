package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadURLs(t *testing.T) {
	t.Run("url column by header name", func(t *testing.T) {
		path := writeCSV(t, "name,product_url\nFairy,https://www.amazon.co.uk/dp/B0AAAA1111\nPods,https://www.amazon.co.uk/dp/B0BBBB2222\n")
		urls, err := LoadURLs(path)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://www.amazon.co.uk/dp/B0AAAA1111",
			"https://www.amazon.co.uk/dp/B0BBBB2222",
		}, urls)
	})

	t.Run("falls back to first column", func(t *testing.T) {
		path := writeCSV(t, "product,notes\nhttps://www.amazon.co.uk/dp/B0AAAA1111,cheap\n")
		urls, err := LoadURLs(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.amazon.co.uk/dp/B0AAAA1111"}, urls)
	})

	t.Run("asin column expanded", func(t *testing.T) {
		path := writeCSV(t, "asin\nB0AAAA1111\n")
		urls, err := LoadURLs(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.amazon.co.uk/dp/B0AAAA1111"}, urls)
	})

	t.Run("blank and short rows skipped", func(t *testing.T) {
		path := writeCSV(t, "url,note\nhttps://www.amazon.co.uk/dp/B0AAAA1111,x\n,\n\nhttps://www.amazon.co.uk/dp/B0BBBB2222,y\n")
		urls, err := LoadURLs(path)
		require.NoError(t, err)
		assert.Len(t, urls, 2)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeCSV(t, "url\n")
		_, err := LoadURLs(path)
		assert.ErrorIs(t, err, ErrNoURLs)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadURLs(filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"B0AAAA1111", "https://www.amazon.co.uk/dp/B0AAAA1111"},
		{"  B0AAAA1111 ", "https://www.amazon.co.uk/dp/B0AAAA1111"},
		{"https://www.amazon.com/dp/B0AAAA1111", "https://www.amazon.co.uk/dp/B0AAAA1111"},
		{"https://www.amazon.co.uk/dp/B0AAAA1111", "https://www.amazon.co.uk/dp/B0AAAA1111"},
		{"b0aaaa1111", "https://www.amazon.co.uk/dp/B0AAAA1111"},
		{"not-an-asin", "not-an-asin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalURL(tt.in), "input: %q", tt.in)
	}
}
