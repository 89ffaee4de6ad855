// Package keystore implements the EIP-2335 keystore envelope used for
// encrypted exit message files. The encrypted payload is an arbitrary byte
// string rather than a BLS secret key, so the ejector can carry pre-signed
// exit messages at rest without exposing them.
package keystore

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	keystorev4 "github.com/wealdtech/go-eth2-wallet-encryptor-keystorev4"
)

// Keystore json file representation as a Go struct.
type Keystore struct {
	Crypto      map[string]interface{} `json:"crypto"`
	ID          string                 `json:"uuid"`
	Pubkey      string                 `json:"pubkey,omitempty"`
	Version     uint                   `json:"version"`
	Description string                 `json:"description,omitempty"`
	Name        string                 `json:"name,omitempty"`
}

// IsKeystoreShaped reports whether raw looks like an EIP-2335 keystore file.
// It only inspects the envelope, the ciphertext is not touched.
func IsKeystoreShaped(raw []byte) bool {
	k := &Keystore{}
	if err := json.Unmarshal(raw, k); err != nil {
		return false
	}
	return k.Crypto != nil && k.Version != 0
}

// Decrypt recovers the plaintext payload of an EIP-2335 keystore file using
// the given password.
func Decrypt(raw []byte, password string) ([]byte, error) {
	k := &Keystore{}
	if err := json.Unmarshal(raw, k); err != nil {
		return nil, errors.Wrap(err, "could not parse keystore file")
	}
	if k.Crypto == nil {
		return nil, errors.New("keystore file is missing its crypto section")
	}
	decryptor := keystorev4.New()
	plaintext, err := decryptor.Decrypt(k.Crypto, password)
	if err != nil {
		return nil, errors.Wrap(err, "could not decrypt keystore file")
	}
	return plaintext, nil
}

// Encrypt wraps a plaintext payload into an EIP-2335 keystore file protected
// by the given password.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	encryptor := keystorev4.New()
	cryptoFields, err := encryptor.Encrypt(plaintext, password)
	if err != nil {
		return nil, errors.Wrap(err, "could not encrypt payload into keystore")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate unique UUID")
	}
	k := &Keystore{
		Crypto:  cryptoFields,
		ID:      id.String(),
		Version: encryptor.Version(),
		Name:    encryptor.Name(),
	}
	return json.MarshalIndent(k, "", "\t")
}
