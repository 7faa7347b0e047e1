// Package export renders the full weather query record set into the four
// supported download formats: JSON, CSV, PDF, and XML.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"skylog/internal/types"
)

// Format identifies an export output format.
type Format string

// Supported export formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXML  Format = "xml"
)

// IsValidFormat reports whether f names a supported export format.
func IsValidFormat(f Format) bool {
	switch f {
	case FormatJSON, FormatCSV, FormatPDF, FormatXML:
		return true
	}
	return false
}

// Result is a rendered export document ready to send as a download.
type Result struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Exporter renders weather query records into downloadable documents.
type Exporter struct {
	nowFn func() time.Time // for testability; defaults to time.Now
}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{nowFn: time.Now}
}

// Export renders queries in the requested format.
func (e *Exporter) Export(format Format, queries []*types.WeatherQuery) (*Result, error) {
	switch format {
	case FormatJSON:
		return e.exportJSON(queries)
	case FormatCSV:
		return e.exportCSV(queries)
	case FormatPDF:
		return e.exportPDF(queries)
	case FormatXML:
		return e.exportXML(queries)
	default:
		return nil, types.NewAppError(types.ErrCodeValidationFailed,
			fmt.Sprintf("unsupported export format %q", format), nil)
	}
}

// jsonEnvelope wraps the record set with export metadata.
type jsonEnvelope struct {
	ExportDate   string                `json:"exportDate"`
	TotalRecords int                   `json:"totalRecords"`
	Data         []*types.WeatherQuery `json:"data"`
}

func (e *Exporter) exportJSON(queries []*types.WeatherQuery) (*Result, error) {
	if queries == nil {
		queries = []*types.WeatherQuery{}
	}
	env := jsonEnvelope{
		ExportDate:   e.nowFn().UTC().Format(time.RFC3339),
		TotalRecords: len(queries),
		Data:         queries,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render JSON export", err)
	}

	return &Result{
		ContentType: "application/json",
		Filename:    "weather-queries.json",
		Data:        buf.Bytes(),
	}, nil
}

// csvHeader is the fixed column set of the CSV export. Absent optional
// values render as empty strings, never as "null".
var csvHeader = []string{
	"id", "location", "country", "latitude", "longitude",
	"dateRangeStart", "dateRangeEnd",
	"currentTemp", "currentHumidity", "currentWeather",
	"notes", "createdAt", "updatedAt",
}

func (e *Exporter) exportCSV(queries []*types.WeatherQuery) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render CSV export", err)
	}

	for _, q := range queries {
		row := []string{
			q.ID,
			q.Location,
			q.Country,
			formatFloat(q.Coordinates.Lat),
			formatFloat(q.Coordinates.Lon),
			q.DateRange.Start.Format(types.DateOnly),
			q.DateRange.End.Format(types.DateOnly),
			"", "", "",
			q.Notes,
			q.CreatedAt.UTC().Format(time.RFC3339),
			q.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if cur := q.WeatherData.Current; cur != nil {
			row[7] = formatFloat(cur.Temp)
			row[8] = strconv.Itoa(cur.Humidity)
			if cur.Weather != nil {
				row[9] = cur.Weather.Description
			}
		}
		if err := w.Write(row); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render CSV export", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render CSV export", err)
	}

	return &Result{
		ContentType: "text/csv",
		Filename:    "weather-queries.csv",
		Data:        buf.Bytes(),
	}, nil
}

// XML export document structure. encoding/xml handles entity escaping.
type xmlExport struct {
	XMLName      xml.Name   `xml:"weatherQueries"`
	ExportDate   string     `xml:"exportDate"`
	TotalRecords int        `xml:"totalRecords"`
	Queries      xmlQueries `xml:"queries"`
}

type xmlQueries struct {
	Query []xmlQuery `xml:"query"`
}

type xmlQuery struct {
	ID          string      `xml:"id"`
	Location    string      `xml:"location"`
	Country     string      `xml:"country"`
	Coordinates xmlCoords   `xml:"coordinates"`
	DateRange   xmlRange    `xml:"dateRange"`
	Current     *xmlCurrent `xml:"currentWeather,omitempty"`
	Notes       string      `xml:"notes"`
	CreatedAt   string      `xml:"createdAt"`
	UpdatedAt   string      `xml:"updatedAt"`
}

type xmlCoords struct {
	Latitude  string `xml:"latitude"`
	Longitude string `xml:"longitude"`
}

type xmlRange struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type xmlCurrent struct {
	Temperature string `xml:"temperature"`
	Humidity    string `xml:"humidity"`
	Description string `xml:"description"`
}

func (e *Exporter) exportXML(queries []*types.WeatherQuery) (*Result, error) {
	doc := xmlExport{
		ExportDate:   e.nowFn().UTC().Format(time.RFC3339),
		TotalRecords: len(queries),
		Queries:      xmlQueries{Query: make([]xmlQuery, 0, len(queries))},
	}

	for _, q := range queries {
		entry := xmlQuery{
			ID:       q.ID,
			Location: q.Location,
			Country:  q.Country,
			Coordinates: xmlCoords{
				Latitude:  formatFloat(q.Coordinates.Lat),
				Longitude: formatFloat(q.Coordinates.Lon),
			},
			DateRange: xmlRange{
				Start: q.DateRange.Start.Format(types.DateOnly),
				End:   q.DateRange.End.Format(types.DateOnly),
			},
			Notes:     q.Notes,
			CreatedAt: q.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: q.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if cur := q.WeatherData.Current; cur != nil {
			current := &xmlCurrent{
				Temperature: formatFloat(cur.Temp),
				Humidity:    strconv.Itoa(cur.Humidity),
			}
			if cur.Weather != nil {
				current.Description = cur.Weather.Description
			}
			entry.Current = current
		}
		doc.Queries.Query = append(doc.Queries.Query, entry)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render XML export", err)
	}

	return &Result{
		ContentType: "application/xml",
		Filename:    "weather-queries.xml",
		Data:        buf.Bytes(),
	}, nil
}

// pdfPageBreakY is the vertical position (mm, A4 portrait) past which a new
// page is started before writing the next record.
const pdfPageBreakY = 250.0

func (e *Exporter) exportPDF(queries []*types.WeatherQuery) (*Result, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	// Title block.
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, "Weather Queries Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, "Generated: "+e.nowFn().UTC().Format("2006-01-02 15:04:05 MST"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Records: %d", len(queries)), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	for i, q := range queries {
		if pdf.GetY() > pdfPageBreakY {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 7, fmt.Sprintf("%d. %s", i+1, q.Location), "", 1, "L", false, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "", 10)
		writePDFLine(pdf, "Country: "+orNA(q.Country))
		writePDFLine(pdf, fmt.Sprintf("Coordinates: %.4f, %.4f", q.Coordinates.Lat, q.Coordinates.Lon))
		writePDFLine(pdf, fmt.Sprintf("Date Range: %s - %s",
			q.DateRange.Start.Format(types.DateOnly), q.DateRange.End.Format(types.DateOnly)))

		if cur := q.WeatherData.Current; cur != nil {
			writePDFLine(pdf, fmt.Sprintf("Temperature: %.1f C", cur.Temp))
			writePDFLine(pdf, fmt.Sprintf("Humidity: %d%%", cur.Humidity))
			desc := "N/A"
			if cur.Weather != nil && cur.Weather.Description != "" {
				desc = cur.Weather.Description
			}
			writePDFLine(pdf, "Weather: "+desc)
		}

		if q.Notes != "" {
			writePDFLine(pdf, "Notes: "+q.Notes)
		}
		writePDFLine(pdf, "Created: "+q.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render PDF export", err)
	}

	return &Result{
		ContentType: "application/pdf",
		Filename:    "weather-queries.pdf",
		Data:        buf.Bytes(),
	}, nil
}

func writePDFLine(pdf *gofpdf.Fpdf, text string) {
	pdf.CellFormat(0, 5, text, "", 1, "L", false, 0, "")
}

// formatFloat renders a float compactly without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
