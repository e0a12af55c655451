package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var ErrNoURLs = errors.New("no product URLs found in input file")

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// urlColumnHints match header cells that identify the URL column,
// case-insensitive substring match.
var urlColumnHints = []string{"url", "link", "asin"}

// LoadURLs reads product URLs from a CSV file. The first row is treated as a
// header; the URL column is picked by header name, falling back to the first
// column. Bare ASINs and amazon.com links are normalised to amazon.co.uk
// product URLs.
func LoadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoURLs
	}

	col := urlColumn(rows[0])

	var urls []string
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[col])
		if raw == "" {
			continue
		}
		urls = append(urls, CanonicalURL(raw))
	}
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	return urls, nil
}

func urlColumn(header []string) int {
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, hint := range urlColumnHints {
			if strings.Contains(name, hint) {
				return i
			}
		}
	}
	return 0
}

// CanonicalURL normalises an input value to an amazon.co.uk product URL. A
// bare ASIN, any case, becomes an uppercase /dp/ link; amazon.com hosts are
// rewritten to the UK storefront so the regional price logic applies.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if asin := strings.ToUpper(raw); asinPattern.MatchString(asin) {
		return "https://www.amazon.co.uk/dp/" + asin
	}
	return strings.Replace(raw, "amazon.com", "amazon.co.uk", 1)
}
