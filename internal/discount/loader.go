package discount

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped catalogue files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "discount-loader").Logger(),
	}
}

// Load reads a gzipped catalogue file and returns its Table.
func (l *fileLoader) Load(ctx context.Context, path string) (Table, error) {
	l.logger.Info().Str("file", path).Msg("loading discount catalogue file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalogue file")
		return nil, fmt.Errorf("failed to open catalogue file %s: %w", path, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
	}
	defer gzipReader.Close()

	table, err := readTable(ctx, gzipReader, path, l.logger)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("error reading catalogue file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("discounts_loaded", table.Size()).
		Msg("discount catalogue file loaded")

	return table, nil
}
