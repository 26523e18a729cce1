package discount

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"orderdesk/internal/money"

	"github.com/rs/zerolog"
)

// readTable parses catalogue lines from r. Malformed lines are skipped and counted.
func readTable(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) (*mapTable, error) {
	table := newMapTable(1024)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo, skipped := 0, 0
	for scanner.Scan() {
		lineNo++
		// Check context cancellation periodically
		if lineNo%100_000 == 0 {
			select {
			case <-ctx.Done():
				logger.Warn().Str("source", source).Msg("catalogue loading cancelled")
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, err := parseLine(line)
		if err != nil {
			skipped++
			logger.Debug().Err(err).Str("source", source).Int("line", lineNo).Msg("skipping catalogue line")
			continue
		}
		table.Add(d)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalogue %s: %w", source, err)
	}

	if skipped > 0 {
		logger.Warn().Str("source", source).Int("skipped", skipped).Msg("catalogue contained malformed lines")
	}

	return table, nil
}

func parseLine(line string) (money.Discount, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return money.Discount{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	code := Normalise(fields[0])
	if code == "" {
		return money.Discount{}, fmt.Errorf("empty code")
	}

	typ, err := money.ParseDiscountType(strings.TrimSpace(fields[1]))
	if err != nil {
		return money.Discount{}, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return money.Discount{}, fmt.Errorf("invalid value %q: %w", fields[2], err)
	}
	if value < 0 || (typ == money.DiscountPercentage && value > 100) {
		return money.Discount{}, fmt.Errorf("value %v out of range for %s discount", value, typ)
	}

	return money.Discount{Type: typ, Value: value, Code: code}, nil
}
