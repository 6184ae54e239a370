package reports

// Document is the logical content of a report, independent of how it is laid out on paper.
type Document struct {
	Title    string
	Subtitle string
	// Framed draws a border around every page.
	Framed bool
	Blocks []Block
}

// Block is a section of a report: an optional heading followed by a table and/or charts.
type Block struct {
	Heading string
	NewPage bool
	Table   *Table
	Charts  []ChartRef
}

// Table is a bordered grid of display strings.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Column is a table header with its printed width in millimetres.
type Column struct {
	Title string
	Width float64
}

// ChartRef embeds a rendered chart image.
type ChartRef struct {
	Caption string
	Path    string
}

// DocumentRenderer writes a document to path.
type DocumentRenderer interface {
	Render(doc Document, path string) error
}
