package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/ocr"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/tools"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DocumentAnalyzer is the slice of the OCR client the corpus builder needs.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, modelID string, document []byte) (*ocr.AnalyzeResult, error)
}

// footerPatterns match scanner artifacts that leak into page footers:
// Windows file paths and mangled page markers.
var footerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[A-Za-z]:\\.*Desktop.*`),
	regexp.MustCompile(`(?i)C:\\.*\.doc`),
	regexp.MustCompile(`(?i)Page\s+\\\s*\d+`),
}

var digitReplacer = strings.NewReplacer(
	"૦", "0", "૧", "1", "૨", "2", "૩", "3", "૪", "4",
	"૫", "5", "૬", "6", "૭", "7", "૮", "8", "૯", "9",
	"०", "0", "१", "1", "२", "2", "३", "3", "४", "4",
	"५", "5", "६", "6", "७", "7", "८", "8", "९", "9",
)

// Builder runs the dual-pass extraction over a folder of scanned PDFs and
// writes the page-ordered corpus artifact. Re-running it is safe: a page's
// record is a pure function of its content, so a partial run is recovered by
// running the whole pass again.
type Builder struct {
	analyzer       DocumentAnalyzer
	footerFilter   bool
	digitNormalize bool
}

func NewBuilder(analyzer DocumentAnalyzer) *Builder {
	cfg := config.GetInstance()
	return &Builder{
		analyzer:       analyzer,
		footerFilter:   cfg.GetBoolOrDefault(config.IngestFooterFilter, true),
		digitNormalize: cfg.GetBoolOrDefault(config.IngestDigitNormalize, true),
	}
}

// BuildCorpus extracts every PDF under inputDir and writes one JSON page
// record per line to corpusFile. A failed document or page is logged and
// skipped, never fatal to the run.
func (b *Builder) BuildCorpus(ctx context.Context, inputDir, corpusFile string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return errors.WithStack(err)
	}

	pdfs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			pdfs = append(pdfs, entry.Name())
		}
	}
	sort.Strings(pdfs)

	if len(pdfs) == 0 {
		return fmt.Errorf("no PDFs found in %s", inputDir)
	}
	log.Infof("found %d PDF(s) to process", len(pdfs))

	if err := os.MkdirAll(filepath.Dir(corpusFile), 0o755); err != nil {
		return errors.WithStack(err)
	}
	out, err := os.Create(corpusFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer tools.ErrorWithPrintContext(out.Close, "close corpus file")

	writer := bufio.NewWriter(out)
	encoder := json.NewEncoder(writer)

	for _, name := range pdfs {
		records, err := b.ExtractDocument(ctx, filepath.Join(inputDir, name))
		if err != nil {
			log.Errorf("extraction failed for %s, skipping document: %v", name, err)
			continue
		}
		if len(records) == 0 {
			log.Warnf("no pages extracted from %s, skipping", name)
			continue
		}
		for _, record := range records {
			if err := encoder.Encode(record); err != nil {
				return errors.WithStack(err)
			}
		}
		log.Infof("extracted %d page(s) from %s", len(records), name)
	}

	return errors.WithStack(writer.Flush())
}

// ExtractDocument runs both passes over one PDF and merges them into page
// records. The layout pass failing only costs the tables; the read pass
// failing skips the document.
func (b *Builder) ExtractDocument(ctx context.Context, pdfPath string) ([]model.PageRecord, error) {
	document, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	docName := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	readResult, err := b.analyzer.Analyze(ctx, ocr.ModelRead, document)
	if err != nil {
		return nil, fmt.Errorf("read pass failed: %w", err)
	}

	tablesByPage := b.tablesByPage(ctx, docName, document)

	records := make([]model.PageRecord, 0, len(readResult.Pages))
	for i, page := range readResult.Pages {
		pageNo := page.PageNumber
		if pageNo == 0 {
			pageNo = i + 1
		}

		lines := make([]string, 0, len(page.Lines))
		for _, line := range page.Lines {
			lines = append(lines, strings.TrimRight(line.Content, " "))
		}
		text := b.normalizeDigits(strings.TrimSpace(strings.Join(b.cleanLines(lines), "\n")))

		records = append(records, model.PageRecord{
			DocName: docName,
			PageNo:  pageNo,
			Text:    text,
			Tables:  tablesByPage[pageNo],
		})
	}
	return records, nil
}

func (b *Builder) tablesByPage(ctx context.Context, docName string, document []byte) map[int][]string {
	byPage := make(map[int][]string)

	layoutResult, err := b.analyzer.Analyze(ctx, ocr.ModelLayout, document)
	if err != nil {
		log.Warnf("layout pass failed for %s, continuing without tables: %v", docName, err)
		return byPage
	}

	for _, table := range layoutResult.Tables {
		if len(table.Cells) == 0 {
			continue
		}

		pageNo := table.PageNumber()
		if pageNo == 0 {
			for _, cell := range table.Cells {
				for _, region := range cell.BoundingRegions {
					if region.PageNumber > 0 && (pageNo == 0 || region.PageNumber < pageNo) {
						pageNo = region.PageNumber
					}
				}
			}
		}

		grid := b.buildGrid(table)
		byPage[pageNo] = append(byPage[pageNo], formatTableAsText(grid))
	}
	return byPage
}

func (b *Builder) buildGrid(table ocr.Table) [][]string {
	rows, cols := 0, 0
	for _, cell := range table.Cells {
		if cell.RowIndex+1 > rows {
			rows = cell.RowIndex + 1
		}
		if cell.ColumnIndex+1 > cols {
			cols = cell.ColumnIndex + 1
		}
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, cell := range table.Cells {
		grid[cell.RowIndex][cell.ColumnIndex] = b.normalizeDigits(cell.Content)
	}
	return grid
}

func (b *Builder) cleanLines(lines []string) []string {
	if !b.footerFilter {
		return lines
	}
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		matched := false
		for _, pattern := range footerPatterns {
			if pattern.MatchString(line) {
				matched = true
				break
			}
		}
		if !matched {
			cleaned = append(cleaned, line)
		}
	}
	return cleaned
}

func (b *Builder) normalizeDigits(text string) string {
	if !b.digitNormalize {
		return text
	}
	return digitReplacer.Replace(text)
}

// formatTableAsText renders a grid with padded, pipe-separated columns and a
// rule under the header row so figures stay aligned in the embedded text.
func formatTableAsText(grid [][]string) string {
	if len(grid) == 0 {
		return ""
	}

	cols := 0
	for _, row := range grid {
		if len(row) > cols {
			cols = len(row)
		}
	}
	widths := make([]int, cols)
	for _, row := range grid {
		for j, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[j] {
				widths[j] = n
			}
		}
	}

	var builder strings.Builder
	for i, row := range grid {
		if i > 0 {
			builder.WriteString("\n")
		}
		parts := make([]string, len(row))
		for j, cell := range row {
			parts[j] = cell + strings.Repeat(" ", widths[j]-utf8.RuneCountInString(cell))
		}
		builder.WriteString(strings.Join(parts, " | "))
		if i == 0 {
			builder.WriteString("\n")
			rules := make([]string, cols)
			for j, w := range widths {
				rules[j] = strings.Repeat("-", w)
			}
			builder.WriteString(strings.Join(rules, "-+-"))
		}
	}
	return builder.String()
}

// ReadCorpus loads the corpus artifact back into page records.
func ReadCorpus(corpusFile string) ([]model.PageRecord, error) {
	f, err := os.Open(corpusFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer tools.ErrorWithPrintContext(f.Close, "close corpus file")

	var records []model.PageRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record model.PageRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("malformed corpus line: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}
