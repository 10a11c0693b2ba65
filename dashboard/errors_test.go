package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio-dashboard/marketdata"
	"portfolio-dashboard/risk"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("dial: %w", marketdata.ErrConnection), KindConnection},
		{fmt.Errorf("select: %w", marketdata.ErrQuery), KindQuery},
		{fmt.Errorf("rows: %w", risk.ErrInsufficientData), KindInsufficientData},
		{fmt.Errorf("select: %w: %w", marketdata.ErrQuery, context.DeadlineExceeded), KindTimeout},
		{errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ErrorKind(tc.err), "%v", tc.err)
	}
}
