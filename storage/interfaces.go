package storage

import "bnb-living-costs/models"

// ResultWriter is the interface any output backend for a pipeline run must satisfy.
type ResultWriter interface {
	Write(result *models.AnalysisResult) error
	Close() error
}

var (
	_ ResultWriter = (*CSVWriter)(nil)
	_ ResultWriter = (*XLSXWriter)(nil)
	_ ResultWriter = (*PostgresWriter)(nil)
)
