package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// PDFHarvester finds, downloads and extracts text from PDFs linked
// by published articles. Every step is best-effort: a missing or
// broken PDF never fails the publication itself.
type PDFHarvester struct {
	client    *http.Client
	userAgent string
	dir       string
}

// NewPDFHarvester creates a harvester that stores PDFs under dir
func NewPDFHarvester(dir string, cfg SourceConfig) *PDFHarvester {
	return &PDFHarvester{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		dir:       dir,
	}
}

// pdfSiteRule is a publisher-specific selector for the PDF download link
type pdfSiteRule struct {
	host     string
	selector string
	textRe   *regexp.Regexp // optional anchor-text filter
	baseURL  string         // prefix for relative hrefs
}

// Publisher pages bury the PDF link differently; these rules cover
// the journals that appear most often in the feeds.
var pdfSiteRules = []pdfSiteRule{
	{host: "nature.com", selector: `a[data-track-label="Download PDF"]`, baseURL: "https://www.nature.com"},
	{host: "cell.com", selector: "a.pdf-download", baseURL: "https://www.cell.com"},
	{host: "science.org", selector: "a", textRe: regexp.MustCompile(`(?i)pdf`), baseURL: "https://www.science.org"},
	{host: "plos.org", selector: "a.btn-multi-primary", textRe: regexp.MustCompile(`(?i)download pdf`), baseURL: "https://journals.plos.org"},
}

// FindPDFLink fetches the article page and looks for a PDF download
// link, trying publisher-specific rules first and generic .pdf href
// scanning second. Returns "" when no PDF link is found.
func (h *PDFHarvester) FindPDFLink(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("HTML parse failed: %w", err)
	}

	// Publisher-specific rules
	for _, rule := range pdfSiteRules {
		if !strings.Contains(articleURL, rule.host) {
			continue
		}
		found := ""
		doc.Find(rule.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if rule.textRe != nil && !rule.textRe.MatchString(s.Text()) {
				return true
			}
			href := strings.TrimSpace(s.AttrOr("href", ""))
			if href == "" {
				return true
			}
			found = absoluteURL(href, rule.baseURL)
			return false
		})
		if found != "" {
			return found, nil
		}
	}

	// Generic case: any href that points at a .pdf
	found := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if strings.HasSuffix(href, ".pdf") || strings.Contains(href, ".pdf?") || strings.Contains(href, "pdf=") {
			found = absoluteURL(href, strings.TrimRight(articleURL, "/"))
			return false
		}
		return true
	})
	if found != "" {
		return found, nil
	}

	// Last resort: anchor text mentioning PDF
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, hasClass := s.Attr("class"); hasClass {
			return true
		}
		if !strings.Contains(strings.ToLower(s.Text()), "pdf") {
			return true
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		found = absoluteURL(href, strings.TrimRight(articleURL, "/"))
		return false
	})

	return found, nil
}

// absoluteURL prefixes relative hrefs with the given base
func absoluteURL(href, base string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return base + href
}

var unsafeFilenameRe = regexp.MustCompile(`[^\w\-]`)
var underscoreRunRe = regexp.MustCompile(`_+`)

// safePDFFilename builds a filesystem-safe filename from the article
// title plus a timestamp that keeps names unique across runs
func safePDFFilename(title string, now time.Time) string {
	safe := unsafeFilenameRe.ReplaceAllString(title, "_")
	safe = underscoreRunRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return fmt.Sprintf("%s_%s.pdf", safe, now.Format("20060102150405"))
}

// Download fetches a PDF and saves it under the harvester's
// directory. Returns the local path of the saved file.
func (h *PDFHarvester) Download(ctx context.Context, pdfURL, title string, now time.Time) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Reject responses that are clearly not PDFs (login pages etc.)
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/pdf") && !strings.HasSuffix(pdfURL, ".pdf") {
		return "", fmt.Errorf("URL does not return a PDF (Content-Type: %s)", contentType)
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create PDF directory: %w", err)
	}

	path := filepath.Join(h.dir, safePDFFilename(title, now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save PDF: %w", err)
	}

	return path, nil
}

// pdfMaxPages limits extraction to the opening pages, where the
// abstract and findings live
const pdfMaxPages = 3

// pdfMaxChars caps the extracted text for the Notion property
const pdfMaxChars = 1000

// ExtractPDFText extracts whitespace-normalized text from the first
// few pages of a downloaded PDF
func ExtractPDFText(path string) (string, error) {
	pdfData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	reader := bytes.NewReader(pdfData)
	pdfReader, err := pdf.NewReader(reader, int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	if numPages > pdfMaxPages {
		numPages = pdfMaxPages
	}
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	result := normalizeWhitespace(strings.TrimSpace(textBuilder.String()))
	if len(result) > pdfMaxChars {
		result = result[:pdfMaxChars]
	}
	return result, nil
}

// WriteIndex generates a searchable HTML index of the harvested PDFs
// with links back to their Notion pages. Returns the index path.
func (h *PDFHarvester) WriteIndex(added []AddedArticle, now time.Time) (string, error) {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create PDF directory: %w", err)
	}

	rows := make([]AddedArticle, 0, len(added))
	for _, a := range added {
		if a.PDFPath != "" {
			rows = append(rows, a)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PublishedAt.After(rows[j].PublishedAt)
	})

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<title>Biotech Relay PDFs</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
tr:nth-child(even) { background-color: #f2f2f2; }
th { background-color: #4CAF50; color: white; }
.search { margin-bottom: 20px; padding: 8px; width: 300px; }
</style>
<script>
function searchTable() {
  const filter = document.getElementById('searchInput').value.toLowerCase();
  const rows = document.getElementById('pdfTable').getElementsByTagName('tr');
  for (let i = 1; i < rows.length; i++) {
    const cell = rows[i].getElementsByTagName('td')[0];
    if (cell) {
      const text = cell.textContent || cell.innerText;
      rows[i].style.display = text.toLowerCase().indexOf(filter) > -1 ? '' : 'none';
    }
  }
}
</script>
</head>
<body>
<h1>Biotech Relay PDFs</h1>
`)
	fmt.Fprintf(&b, "<p>Last updated: %s</p>\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(`<input type="text" id="searchInput" class="search" onkeyup="searchTable()" placeholder="Search for titles...">
<table id="pdfTable">
<tr><th>Title</th><th>Date</th><th>PDF</th><th>Notion Link</th></tr>
`)

	for _, a := range rows {
		date := now.Format("2006-01-02")
		if !a.PublishedAt.IsZero() {
			date = a.PublishedAt.Format("2006-01-02")
		}
		notionCell := "No link"
		if a.PageURL != "" {
			notionCell = fmt.Sprintf(`<a href="%s" target="_blank">Open in Notion</a>`, a.PageURL)
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td><a href=%q target=\"_blank\">Open PDF</a></td><td>%s</td></tr>\n",
			a.Title, date, filepath.Base(a.PDFPath), notionCell)
	}

	b.WriteString("</table>\n</body>\n</html>\n")

	indexPath := filepath.Join(h.dir, "index.html")
	if err := os.WriteFile(indexPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write PDF index: %w", err)
	}
	return indexPath, nil
}
