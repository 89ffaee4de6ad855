package keystore

import (
	"testing"

	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	payload := []byte(`{"message":{"epoch":"194048","validator_index":"55555"},"signature":"0xabcdef"}`)
	raw, err := Encrypt(payload, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, true, IsKeystoreShaped(raw))

	got, err := Decrypt(raw, "s3cret")
	require.NoError(t, err)
	require.DeepEqual(t, payload, got)
}

func TestDecryptWrongPassword(t *testing.T) {
	raw, err := Encrypt([]byte("payload"), "correct")
	require.NoError(t, err)

	_, err = Decrypt(raw, "wrong")
	require.ErrorContains(t, "could not decrypt keystore file", err)
}

func TestDecryptNotAKeystore(t *testing.T) {
	_, err := Decrypt([]byte(`{"epoch":"1"}`), "pw")
	require.ErrorContains(t, "missing its crypto section", err)

	_, err = Decrypt([]byte(`not json`), "pw")
	require.ErrorContains(t, "could not parse keystore file", err)
}

func TestIsKeystoreShaped(t *testing.T) {
	assert.Equal(t, false, IsKeystoreShaped([]byte(`{"message":{}}`)))
	assert.Equal(t, false, IsKeystoreShaped([]byte(`garbage`)))
}
