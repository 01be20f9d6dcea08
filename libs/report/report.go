// Package report renders the static results page from an HTML template
// with literal placeholder tokens.
package report

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sprucehealth/transcriptreport/libs/wordfreq"
)

// ErrTemplate is returned when the page cannot be rendered.
var ErrTemplate = errors.New("report: template render failed")

const (
	// TopN is the number of ranked words shown on the page.
	TopN = 3
	// Filler stands in for ranks that have no word.
	Filler = "N/A"
	// DateFormat is the display format of the report date.
	DateFormat = "02-01-2006"
	// ContentType of the rendered page.
	ContentType = "text/html"
)

// Placeholder tokens replaced in the template.
const (
	ImageLinkToken = "{{image_link}}"
	DateToken      = "{{date}}"
	WordCountToken = "{{wordcount}}"
)

// WordToken returns the placeholder for the word at the 1-based rank.
func WordToken(rank int) string {
	return "{{word" + strconv.Itoa(rank) + "}}"
}

// CountToken returns the placeholder for the count at the 1-based rank.
func CountToken(rank int) string {
	return "{{count" + strconv.Itoa(rank) + "}}"
}

// Fields are the values substituted into the template.
type Fields struct {
	ImageLink string
	Date      string
	WordCount int
	// Top holds the ranked words, most frequent first. Only the first TopN are used.
	Top []wordfreq.Entry
}

// Render substitutes the fields into tmpl. Ranks missing from Top are
// rendered as Filler with a count of 0.
func Render(tmpl string, f *Fields) (string, error) {
	if f == nil {
		return "", errors.Wrap(ErrTemplate, "no fields")
	}
	if f.ImageLink == "" {
		return "", errors.Wrap(ErrTemplate, "missing image link")
	}
	if f.Date == "" {
		return "", errors.Wrap(ErrTemplate, "missing date")
	}
	if f.WordCount < 0 {
		return "", errors.Wrapf(ErrTemplate, "negative word count %d", f.WordCount)
	}

	pairs := []string{
		ImageLinkToken, f.ImageLink,
		DateToken, f.Date,
		WordCountToken, strconv.Itoa(f.WordCount),
	}
	for i := 0; i < TopN; i++ {
		word, count := Filler, 0
		if i < len(f.Top) {
			word, count = f.Top[i].Word, f.Top[i].Count
		}
		pairs = append(pairs, WordToken(i+1), word, CountToken(i+1), strconv.Itoa(count))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// Missing returns the placeholder tokens that do not appear in tmpl.
func Missing(tmpl string) []string {
	tokens := []string{ImageLinkToken, DateToken, WordCountToken}
	for i := 1; i <= TopN; i++ {
		tokens = append(tokens, WordToken(i), CountToken(i))
	}
	var missing []string
	for _, t := range tokens {
		if !strings.Contains(tmpl, t) {
			missing = append(missing, t)
		}
	}
	return missing
}
