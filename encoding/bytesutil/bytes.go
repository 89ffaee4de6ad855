// Package bytesutil defines helper methods for converting between byte slices
// and the fixed-size arrays used across the ejector.
package bytesutil

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// ToBytes4 is a convenience method for converting a byte slice to a fix
// sized 4 byte array. This method will truncate the input if it is larger
// than 4 bytes.
func ToBytes4(x []byte) [4]byte {
	var y [4]byte
	copy(y[:], x)
	return y
}

// ToBytes32 is a convenience method for converting a byte slice to a fix
// sized 32 byte array. This method will truncate the input if it is larger
// than 32 bytes.
func ToBytes32(x []byte) [32]byte {
	var y [32]byte
	copy(y[:], x)
	return y
}

// ToBytes48 is a convenience method for converting a byte slice to a fix
// sized 48 byte array. This method will truncate the input if it is larger
// than 48 bytes.
func ToBytes48(x []byte) [48]byte {
	var y [48]byte
	copy(y[:], x)
	return y
}

// ToBytes96 is a convenience method for converting a byte slice to a fix
// sized 96 byte array. This method will truncate the input if it is larger
// than 96 bytes.
func ToBytes96(x []byte) [96]byte {
	var y [96]byte
	copy(y[:], x)
	return y
}

// SafeCopyBytes will copy and return a non-nil byte slice, otherwise it
// returns nil.
func SafeCopyBytes(cp []byte) []byte {
	if cp != nil {
		copied := make([]byte, len(cp))
		copy(copied, cp)
		return copied
	}
	return nil
}

// PadTo pads a byte slice to the given size. If the byte slice is larger than
// the given size, the original slice is returned.
func PadTo(b []byte, size int) []byte {
	if len(b) > size {
		return b
	}
	return append(b, make([]byte, size-len(b))...)
}

// Trunc truncates the byte slices to 6 bytes and returns a hex representation
// suitable for log fields.
func Trunc(x []byte) string {
	str := hex.EncodeToString(x)
	if len(str) > 12 {
		return str[:12]
	}
	return str
}

// Uint64ToBytesBigEndian conversion.
func Uint64ToBytesBigEndian(i uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, i)
	return buf
}

// BytesToUint64BigEndian conversion. Returns 0 if empty bytes or byte slice
// with length less than 8.
func BytesToUint64BigEndian(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// DecodeHexWithLength decodes a 0x-prefixed hex string and verifies the
// decoded payload is exactly length bytes.
func DecodeHexWithLength(s string, length int) ([]byte, error) {
	if len(s) < 2 || s[:2] != "0x" {
		return nil, fmt.Errorf("hex string does not have 0x prefix: %s", s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode hex string %s", s)
	}
	if len(b) != length {
		return nil, fmt.Errorf("length of decoded %s is %d, expected %d", s, len(b), length)
	}
	return b, nil
}
