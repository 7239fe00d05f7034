package pubmed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// XPath expressions used to read an efetch document.
const (
	pathArticleTitle    = "//ArticleTitle"
	pathJournalTitle    = "//Journal/Title"
	pathPubDateYear     = "//PubDate/Year"
	pathArticleDateYear = "//ArticleDate/Year"
	pathMedlineDate     = "//PubDate/MedlineDate"
	pathAbstractText    = "//Abstract/AbstractText"
)

// articleDoc is a parsed efetch document queried by path.
type articleDoc struct {
	root *xmlquery.Node
}

// parseArticleDoc parses an efetch response body.
func parseArticleDoc(body []byte) (*articleDoc, error) {
	root, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML response: %w", err)
	}
	return &articleDoc{root: root}, nil
}

// firstText returns the trimmed text of the first node matching expr, or "".
func (d *articleDoc) firstText(expr string) string {
	node, err := xmlquery.Query(d.root, expr)
	if err != nil || node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}

// allText returns the trimmed, non-empty texts of every node matching expr.
func (d *articleDoc) allText(expr string) []string {
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}

	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if t := strings.TrimSpace(n.InnerText()); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// Title returns the article title.
func (d *articleDoc) Title() string {
	return d.firstText(pathArticleTitle)
}

// Journal returns the journal title.
func (d *articleDoc) Journal() string {
	return d.firstText(pathJournalTitle)
}

// Year returns PubDate/Year, then ArticleDate/Year, then the leading year of
// a MedlineDate such as "2020 Jan-Feb".
func (d *articleDoc) Year() string {
	if y := d.firstText(pathPubDateYear); y != "" {
		return y
	}
	if y := d.firstText(pathArticleDateYear); y != "" {
		return y
	}
	return yearFromMedlineDate(d.firstText(pathMedlineDate))
}

// Abstract joins all abstract fragments with newlines.
func (d *articleDoc) Abstract() string {
	return strings.TrimSpace(strings.Join(d.allText(pathAbstractText), "\n"))
}

// yearFromMedlineDate extracts the year from a MedlineDate string.
// MedlineDate can be "2020 Jan-Feb", "2020 Spring", "2020-2021", etc.
func yearFromMedlineDate(medlineDate string) string {
	parts := strings.Fields(medlineDate)
	if len(parts) == 0 {
		return ""
	}
	year := strings.Split(parts[0], "-")[0]
	if len(year) != 4 {
		return ""
	}
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}
