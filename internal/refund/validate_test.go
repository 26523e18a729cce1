package refund

import (
	"bytes"
	"testing"

	"orderdesk/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogExceeded(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog bool
	}{
		{name: "Exceeds available amount", err: model.ErrExceedsAvailable, wantLog: true},
		{name: "Ordinary rejection", err: model.ErrEmptySelection},
		{name: "No error", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			o := twoItemOrder()

			LogExceeded(zerolog.New(&buf), tt.err, o, 12000)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), `"level":"error"`)
			assert.Contains(t, buf.String(), `"amount":12000`)
			assert.Contains(t, buf.String(), `"net_amount":11000`)
			assert.Contains(t, buf.String(), o.ID.String())
		})
	}
}
