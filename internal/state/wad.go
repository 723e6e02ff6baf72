// ./internal/state/wad.go
package state

import (
	"database/sql/driver"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// wadColumn adapts a fixed-point integer field to database/sql scanning.
// NUMERIC(40,0) columns come back from lib/pq as decimal strings, which
// round-trip losslessly through sdkmath.Int.
type wadColumn struct {
	v *sdkmath.Int
}

func wad(v *sdkmath.Int) wadColumn { return wadColumn{v: v} }

func (w wadColumn) Scan(src interface{}) error {
	var s string
	switch t := src.(type) {
	case []byte:
		s = string(t)
	case string:
		s = t
	case int64:
		*w.v = sdkmath.NewInt(t)
		return nil
	case nil:
		return fmt.Errorf("unexpected NULL in fixed-point column")
	default:
		return fmt.Errorf("cannot scan %T into fixed-point column", src)
	}
	parsed, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return fmt.Errorf("invalid fixed-point value %q", s)
	}
	*w.v = parsed
	return nil
}

// wadArg converts a fixed-point integer into a driver-friendly value for
// INSERT/UPDATE placeholders. Nil-safe so uninitialized optional fields
// persist as zero rather than panicking inside the driver.
func wadArg(v sdkmath.Int) driver.Value {
	if v.IsNil() {
		return "0"
	}
	return v.String()
}
