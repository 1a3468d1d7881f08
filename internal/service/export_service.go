package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"studentperf/internal/model"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	exportSheet = "Students"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrExportGenerate    = errors.New("failed to generate export file")
)

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Name        string
	ContentType string
	Body        *bytes.Buffer
}

type ExportService struct {
	students *StudentService
	logger   *zap.Logger
	now      func() time.Time
}

func NewExportService(students *StudentService, logger *zap.Logger) *ExportService {
	return &ExportService{students: students, logger: logger, now: time.Now}
}

// ExportHeader is the column layout shared by every export format and
// understood by the importer.
func ExportHeader() []string {
	header := []string{"id", "name", "roll"}
	header = append(header, model.Subjects...)
	return append(header, "avg", "grade", "status")
}

// FormatAvg writes an average in its shortest form, the same digits the
// JSON API returns ("82.6", "80").
func FormatAvg(avg float64) string {
	return strconv.FormatFloat(avg, 'f', -1, 64)
}

// Export renders the filtered roster. An empty format means CSV.
func (s *ExportService) Export(ctx context.Context, f StudentFilter, format string) (*ExportFile, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	students, err := s.students.FilterStudents(ctx, f)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("students_%s.%s", s.now().Format("20060102_150405"), format)
	buf := new(bytes.Buffer)

	switch format {
	case FormatXLSX:
		if err := writeXLSX(buf, students); err != nil {
			s.logger.Error("write xlsx export", zap.Error(err))
			return nil, ErrExportGenerate
		}
		return &ExportFile{Name: name, ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Body: buf}, nil
	default:
		if err := writeCSV(buf, students); err != nil {
			s.logger.Error("write csv export", zap.Error(err))
			return nil, ErrExportGenerate
		}
		return &ExportFile{Name: name, ContentType: "text/csv", Body: buf}, nil
	}
}

func writeCSV(buf *bytes.Buffer, students []model.Student) error {
	w := csv.NewWriter(buf)
	if err := w.Write(ExportHeader()); err != nil {
		return err
	}
	for _, st := range students {
		row := []string{strconv.FormatInt(st.ID, 10), st.Name, st.Roll}
		for _, score := range st.Marks.Ordered() {
			row = append(row, strconv.Itoa(score))
		}
		row = append(row, FormatAvg(st.Avg), st.Grade, st.Status)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(buf *bytes.Buffer, students []model.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := ExportHeader()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for i, title := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "B", "B", 20); err != nil {
		return err
	}

	for r, st := range students {
		row := []any{st.ID, st.Name, st.Roll}
		for _, score := range st.Marks.Ordered() {
			row = append(row, score)
		}
		row = append(row, st.Avg, st.Grade, st.Status)

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(buf)
}
