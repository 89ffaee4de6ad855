package bytesutil_test

import (
	"testing"

	"github.com/lidofinance/validator-ejector/encoding/bytesutil"
	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
)

func TestToBytes32(t *testing.T) {
	tests := []struct {
		a []byte
		b [32]byte
	}{
		{nil, [32]byte{}},
		{[]byte{}, [32]byte{}},
		{[]byte{1}, [32]byte{1}},
		{[]byte{1, 2, 3}, [32]byte{1, 2, 3}},
		{[]byte{32: 1}, [32]byte{}},
	}
	for _, tt := range tests {
		assert.DeepEqual(t, tt.b, bytesutil.ToBytes32(tt.a))
	}
}

func TestToBytes48_Truncates(t *testing.T) {
	long := make([]byte, 50)
	long[0] = 0xaa
	long[49] = 0xbb
	got := bytesutil.ToBytes48(long)
	assert.Equal(t, byte(0xaa), got[0])
	assert.Equal(t, byte(0), got[47])
}

func TestSafeCopyBytes(t *testing.T) {
	assert.DeepEqual(t, []byte(nil), bytesutil.SafeCopyBytes(nil))
	src := []byte{1, 2, 3}
	cp := bytesutil.SafeCopyBytes(src)
	assert.DeepEqual(t, src, cp)
	cp[0] = 9
	assert.Equal(t, byte(1), src[0])
}

func TestPadTo(t *testing.T) {
	b := bytesutil.PadTo([]byte{1, 2}, 4)
	assert.DeepEqual(t, []byte{1, 2, 0, 0}, b)
	b = bytesutil.PadTo([]byte{1, 2, 3, 4, 5}, 4)
	assert.DeepEqual(t, []byte{1, 2, 3, 4, 5}, b)
}

func TestTrunc(t *testing.T) {
	assert.Equal(t, "010203", bytesutil.Trunc([]byte{1, 2, 3}))
	long := make([]byte, 48)
	assert.Equal(t, 12, len(bytesutil.Trunc(long)))
}

func TestDecodeHexWithLength(t *testing.T) {
	b, err := bytesutil.DecodeHexWithLength("0x01020304", 4)
	require.NoError(t, err)
	assert.DeepEqual(t, []byte{1, 2, 3, 4}, b)

	_, err = bytesutil.DecodeHexWithLength("01020304", 4)
	require.ErrorContains(t, "0x prefix", err)

	_, err = bytesutil.DecodeHexWithLength("0x0102", 4)
	require.ErrorContains(t, "expected 4", err)

	_, err = bytesutil.DecodeHexWithLength("0xzz", 1)
	require.ErrorContains(t, "could not decode", err)
}
