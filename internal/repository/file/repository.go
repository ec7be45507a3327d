package file

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"dbdwatch/internal/domain/observation"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// Repository reads the observation table from a .csv or .xlsx file
type Repository struct {
	path string
	log  *logger.Logger
}

func NewRepository(path string, log *logger.Logger) *Repository {
	return &Repository{
		path: path,
		log:  log.With("component", "file_dataset"),
	}
}

// Load implements observation.Repository
func (r *Repository) Load(ctx context.Context) (*observation.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		headers []string
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(r.path)); ext {
	case ".csv":
		headers, records, err = readCSV(r.path)
	case ".xlsx":
		headers, records, err = readXLSX(r.path)
	default:
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "unsupported dataset format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "read %s: %v", r.path, err)
	}

	ds, report, err := buildDataset(headers, records)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "dataset %s: %v", r.path, err)
	}

	r.log.Infow("Dataset loaded",
		"path", r.path,
		"rows", report.Rows,
		"skipped", report.SkippedRows,
		"regions", len(ds.Regions()),
	)
	return ds, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, nil, err
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return headers, records, nil
}

// readXLSX reads the first sheet; the first row holds the headers
func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("sheet is empty")
	}
	return rows[0], rows[1:], nil
}

var _ observation.Repository = (*Repository)(nil)
