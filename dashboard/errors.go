package dashboard

import (
	"context"
	"errors"

	"portfolio-dashboard/marketdata"
	"portfolio-dashboard/risk"
)

// Error kinds reported on snapshots and metrics.
const (
	KindConnection       = "connection"
	KindQuery            = "query"
	KindInsufficientData = "insufficient_data"
	KindTimeout          = "timeout"
	KindUnknown          = "unknown"
)

// ErrorKind classifies a tick error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, marketdata.ErrConnection):
		return KindConnection
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, marketdata.ErrQuery):
		return KindQuery
	case errors.Is(err, risk.ErrInsufficientData):
		return KindInsufficientData
	default:
		return KindUnknown
	}
}
