package marketdata

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// columnIndex locates the required columns in a SELECT * result.
type columnIndex struct {
	ts, value, qty int
}

func indexColumns(names []string) (columnIndex, error) {
	idx := columnIndex{ts: -1, value: -1, qty: -1}
	for i, n := range names {
		switch strings.ToLower(n) {
		case ColTimestamp:
			idx.ts = i
		case ColAssetValue:
			idx.value = i
		case ColQuantity:
			idx.qty = i
		}
	}
	var missing []string
	if idx.ts < 0 {
		missing = append(missing, ColTimestamp)
	}
	if idx.value < 0 {
		missing = append(missing, ColAssetValue)
	}
	if idx.qty < 0 {
		missing = append(missing, ColQuantity)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing column(s) %s: %w", strings.Join(missing, ", "), ErrQuery)
	}
	return idx, nil
}

func decodeRecord(idx columnIndex, vals []any) (MarketDataRow, error) {
	var row MarketDataRow
	var err error
	if row.Timestamp, err = toTime(vals[idx.ts]); err != nil {
		return row, fmt.Errorf("column %s: %v: %w", ColTimestamp, err, ErrQuery)
	}
	if row.AssetValue, err = toFloat(vals[idx.value]); err != nil {
		return row, fmt.Errorf("column %s: %v: %w", ColAssetValue, err, ErrQuery)
	}
	if row.Quantity, err = toFloat(vals[idx.qty]); err != nil {
		return row, fmt.Errorf("column %s: %v: %w", ColQuantity, err, ErrQuery)
	}
	return row, nil
}

// deref follows pointers produced by nullable scan types.
func deref(v any) (any, bool) {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v, true
		}
		if rv.IsNil() {
			return nil, false
		}
		v = rv.Elem().Interface()
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	v, ok := deref(v)
	if !ok {
		return 0, fmt.Errorf("null value")
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case pgtype.Numeric:
		if !x.Valid {
			return 0, fmt.Errorf("null value")
		}
		f, err := x.Float64Value()
		if err != nil {
			return 0, err
		}
		return f.Float64, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("non-numeric value of type %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	v, ok := deref(v)
	if !ok {
		return time.Time{}, fmt.Errorf("null value")
	}
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case pgtype.Timestamp:
		if !x.Valid {
			return time.Time{}, fmt.Errorf("null value")
		}
		return x.Time, nil
	case pgtype.Timestamptz:
		if !x.Valid {
			return time.Time{}, fmt.Errorf("null value")
		}
		return x.Time, nil
	case string:
		return time.Parse(time.RFC3339Nano, x)
	default:
		return time.Time{}, fmt.Errorf("non-time value of type %T", v)
	}
}
