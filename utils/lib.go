package utils

import (
	"fmt"
	"strconv"
	"unsafe"
)

// UnsafeString returns a string pointer without allocation
func UnsafeString(b []byte) string {
	// #nosec G103
	return *(*string)(unsafe.Pointer(&b))
}

// UnsafeBytes returns a byte pointer without allocation.
func UnsafeBytes(s string) []byte {
	// #nosec G103
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func ToString(val any) string {
	switch val := val.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int, int32, int64, int8, int16, uint, uint32, uint64, uint8, uint16:
		return fmt.Sprintf("%d", val)
	case float32:
		buf := make([]byte, 0, 32)
		buf = strconv.AppendFloat(buf, float64(val), 'f', -1, 64)
		return string(buf)
	case float64:
		buf := make([]byte, 0, 32)
		buf = strconv.AppendFloat(buf, val, 'f', -1, 64)
		return string(buf)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// JoinKey builds a canonical lookup key from the given parts using a unit
// separator so that items containing commas or spaces cannot collide.
func JoinKey[T any](parts []T) string {
	if len(parts) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(parts)*8)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, 0x1f)
		}
		buf = append(buf, ToString(part)...)
	}
	return UnsafeString(buf)
}

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
