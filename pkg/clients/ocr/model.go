package ocr

const (
	// ModelRead is the plain text extraction model.
	ModelRead = "prebuilt-read"
	// ModelLayout additionally reconstructs tables.
	ModelLayout = "prebuilt-layout"
)

type analyzeResponse struct {
	Status        string         `json:"status"`
	AnalyzeResult *AnalyzeResult `json:"analyzeResult"`
	Error         *apiError      `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalyzeResult is the subset of the Document Intelligence response the
// ingestion pipeline consumes.
type AnalyzeResult struct {
	Pages  []Page  `json:"pages"`
	Tables []Table `json:"tables"`
}

type Page struct {
	PageNumber int    `json:"pageNumber"`
	Lines      []Line `json:"lines"`
}

type Line struct {
	Content string `json:"content"`
}

type Table struct {
	RowCount        int              `json:"rowCount"`
	ColumnCount     int              `json:"columnCount"`
	Cells           []Cell           `json:"cells"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
}

type Cell struct {
	RowIndex        int              `json:"rowIndex"`
	ColumnIndex     int              `json:"columnIndex"`
	Content         string           `json:"content"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
}

type BoundingRegion struct {
	PageNumber int `json:"pageNumber"`
}

// PageNumber returns the page a table sits on, or 0 when the service did not
// report a region.
func (t *Table) PageNumber() int {
	if len(t.BoundingRegions) == 0 {
		return 0
	}
	return t.BoundingRegions[0].PageNumber
}
