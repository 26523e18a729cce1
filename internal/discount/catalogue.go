package discount

import (
	"context"
	"fmt"
	"sync"

	"orderdesk/internal/money"

	"github.com/rs/zerolog"
)

// catalogue implements Catalogue over tables loaded at start-up. Tables listed
// later take precedence when a code appears in more than one file.
type catalogue struct {
	tables []Table
	logger zerolog.Logger
}

// NewCatalogue loads every file concurrently and returns the combined catalogue.
// Any file that fails to load fails the whole catalogue.
func NewCatalogue(ctx context.Context, paths []string, loader Loader, logger zerolog.Logger) (Catalogue, error) {
	logger = logger.With().Str("component", "discount-catalogue").Logger()

	logger.Info().Int("file_count", len(paths)).Msg("initialising discount catalogue")

	type loadResult struct {
		index int
		table Table
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			table, err := loader.Load(ctx, path)
			resultChan <- loadResult{index: index, table: table, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	// Collect results in file order
	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	c := &catalogue{
		tables: make([]Table, 0, len(paths)),
		logger: logger,
	}
	for i, result := range results {
		if result.err != nil {
			logger.Error().Err(result.err).Str("file", paths[i]).Msg("failed to load catalogue file")
			return nil, fmt.Errorf("failed to load catalogue file %s: %w", paths[i], result.err)
		}
		c.tables = append(c.tables, result.table)
	}

	logger.Info().Int("entries", c.Size()).Msg("discount catalogue initialised")

	return c, nil
}

// NewStaticCatalogue builds a catalogue from in-memory discounts.
func NewStaticCatalogue(discounts ...money.Discount) Catalogue {
	table := newMapTable(len(discounts))
	for _, d := range discounts {
		table.Add(d)
	}
	return &catalogue{tables: []Table{table}, logger: zerolog.Nop()}
}

// Lookup returns the discount for a coupon code.
func (c *catalogue) Lookup(code string) (*money.Discount, bool) {
	code = Normalise(code)
	if code == "" {
		return nil, false
	}

	for i := len(c.tables) - 1; i >= 0; i-- {
		if d, ok := c.tables[i].Get(code); ok {
			return &d, true
		}
	}

	c.logger.Debug().Str("coupon_code", code).Msg("coupon code not in catalogue")
	return nil, false
}

// Size returns the number of entries across all loaded files.
func (c *catalogue) Size() int {
	n := 0
	for _, t := range c.tables {
		n += t.Size()
	}
	return n
}

// Close releases resources held by the catalogue.
func (c *catalogue) Close() error {
	c.tables = nil
	c.logger.Info().Msg("discount catalogue closed")
	return nil
}
