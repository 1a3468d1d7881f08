package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"studentperf/internal/model"
)

const (
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportError      = "error"
)

var (
	ErrImportEmpty         = errors.New("import file has no header row")
	ErrImportMissingColumn = errors.New("import file is missing a required column")
	ErrImportInProgress    = errors.New("an import of this file is still running")
)

// ImportReport tracks one uploaded file from parsing to the last created
// record.
type ImportReport struct {
	FileName     string    `json:"file_name"`
	TotalRecords int       `json:"total_records"`
	Processed    int       `json:"processed"`
	Imported     int       `json:"imported"`
	Skipped      int       `json:"skipped"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// UploadService bulk-loads students from CSV or XLSX files laid out like the
// export (header row, then one student per row).
type UploadService struct {
	students         *StudentService
	logger           *zap.Logger
	fileProgressMap  map[string]*ImportReport
	fileProgressLock sync.RWMutex

	workerSemaphore      chan struct{}
	maxConcurrentWorkers int
}

func NewUploadService(students *StudentService, logger *zap.Logger) *UploadService {
	maxWorkers := runtime.NumCPU() * 2

	return &UploadService{
		students:             students,
		logger:               logger,
		fileProgressMap:      make(map[string]*ImportReport),
		workerSemaphore:      make(chan struct{}, maxWorkers),
		maxConcurrentWorkers: maxWorkers,
	}
}

func (s *UploadService) GetFileProgress(fileName string) *ImportReport {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		copyProgress := *progress
		return &copyProgress
	}
	return nil
}

// GetAllFileProgress returns a snapshot of every report, ordered by file name.
func (s *UploadService) GetAllFileProgress() []*ImportReport {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	result := make([]*ImportReport, 0, len(s.fileProgressMap))
	for _, progress := range s.fileProgressMap {
		copyProgress := *progress
		result = append(result, &copyProgress)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileName < result[j].FileName })
	return result
}

func (s *UploadService) updateProgress(fileName string, fn func(*ImportReport)) {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		fn(progress)
	}
}

func (s *UploadService) updateProgressError(fileName string, err error) {
	s.updateProgress(fileName, func(p *ImportReport) {
		p.Status = ImportError
		p.Error = err.Error()
		p.EndTime = time.Now()
	})
}

// Import parses the file and creates one student per data row, in file
// order. Rows whose roll already appeared earlier in the same file and rows
// with no cells are skipped. The returned report is a snapshot.
//
// Reports are kept per file name, so a second import of a name that is still
// processing is refused with ErrImportInProgress; its report is returned but
// not stored.
func (s *UploadService) Import(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error) {
	fileName = filepath.Base(fileName)
	startTime := time.Now()

	s.fileProgressLock.Lock()
	if running, exists := s.fileProgressMap[fileName]; exists && running.Status == ImportProcessing {
		s.fileProgressLock.Unlock()
		err := fmt.Errorf("%w: %s", ErrImportInProgress, fileName)
		return &ImportReport{
			FileName:  fileName,
			Status:    ImportError,
			Error:     err.Error(),
			StartTime: startTime,
			EndTime:   time.Now(),
		}, err
	}
	s.fileProgressMap[fileName] = &ImportReport{
		FileName:  fileName,
		Status:    ImportProcessing,
		StartTime: startTime,
	}
	s.fileProgressLock.Unlock()

	rows, err := readRows(fileName, r)
	if err != nil {
		s.updateProgressError(fileName, err)
		return s.GetFileProgress(fileName), err
	}

	columns, err := mapColumns(rows)
	if err != nil {
		s.updateProgressError(fileName, err)
		return s.GetFileProgress(fileName), err
	}

	records := rows[1:]
	s.updateProgress(fileName, func(p *ImportReport) { p.TotalRecords = len(records) })

	numWorkers := min(calculateWorkers(len(records)), s.maxConcurrentWorkers)
	s.logger.Info("importing students",
		zap.String("file", fileName),
		zap.Int("rows", len(records)),
		zap.Int("workers", numWorkers),
	)

	inputs := s.parseRows(records, columns, numWorkers)

	seenRolls := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			s.updateProgressError(fileName, err)
			return s.GetFileProgress(fileName), err
		}

		if in == nil || (in.Roll != "" && seenRolls[in.Roll]) {
			s.updateProgress(fileName, func(p *ImportReport) {
				p.Processed++
				p.Skipped++
			})
			continue
		}
		if in.Roll != "" {
			seenRolls[in.Roll] = true
		}

		if _, err := s.students.CreateStudent(ctx, *in); err != nil {
			err = fmt.Errorf("create student %q: %w", in.Roll, err)
			s.updateProgressError(fileName, err)
			return s.GetFileProgress(fileName), err
		}
		s.updateProgress(fileName, func(p *ImportReport) {
			p.Processed++
			p.Imported++
		})
	}

	s.updateProgress(fileName, func(p *ImportReport) {
		p.Status = ImportCompleted
		p.EndTime = time.Now()
	})

	report := s.GetFileProgress(fileName)
	s.logger.Info("import completed",
		zap.String("file", fileName),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Duration("took", time.Since(startTime)),
	)
	return report, nil
}

type importColumns struct {
	name     int
	roll     int
	subjects []int
}

func mapColumns(rows [][]string) (importColumns, error) {
	if len(rows) == 0 {
		return importColumns{}, ErrImportEmpty
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := importColumns{name: -1, roll: -1}
	var ok bool
	if cols.name, ok = index["name"]; !ok {
		return cols, fmt.Errorf("%w: name", ErrImportMissingColumn)
	}
	if cols.roll, ok = index["roll"]; !ok {
		return cols, fmt.Errorf("%w: roll", ErrImportMissingColumn)
	}
	for _, subject := range model.Subjects {
		i, ok := index[strings.ToLower(subject)]
		if !ok {
			i = -1
		}
		cols.subjects = append(cols.subjects, i)
	}
	return cols, nil
}

// parseRows converts rows to inputs with a bounded pool of workers. The
// result is indexed like records; blank rows come back nil.
func (s *UploadService) parseRows(records [][]string, cols importColumns, numWorkers int) []*model.StudentInput {
	out := make([]*model.StudentInput, len(records))
	jobs := make(chan int, len(records))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.worker(records, cols, jobs, out, &wg)
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return out
}

func (s *UploadService) worker(records [][]string, cols importColumns, jobs <-chan int, out []*model.StudentInput, wg *sync.WaitGroup) {
	s.workerSemaphore <- struct{}{}
	defer func() {
		<-s.workerSemaphore
		wg.Done()
	}()

	for i := range jobs {
		out[i] = parseRecord(records[i], cols)
	}
}

func parseRecord(record []string, cols importColumns) *model.StudentInput {
	blank := true
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil
	}

	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	in := &model.StudentInput{
		Name:  cell(cols.name),
		Roll:  cell(cols.roll),
		Marks: make(model.Marks, len(model.Subjects)),
	}
	for i, subject := range model.Subjects {
		in.Marks[subject] = model.ParseScore(cell(cols.subjects[i]))
	}
	return in
}

func readRows(fileName string, r io.Reader) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("read xlsx rows: %w", err)
		}
		return rows, nil
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// calculateWorkers sizes the parse pool from the number of data rows.
func calculateWorkers(rows int) int {
	cpus := runtime.NumCPU()

	switch {
	case rows < 1_000:
		return min(2, cpus)
	case rows < 10_000:
		return min(4, cpus)
	case rows < 100_000:
		return min(8, cpus)
	default:
		return cpus
	}
}
