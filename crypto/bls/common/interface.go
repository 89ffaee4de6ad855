// Package common provides the BLS interfaces that are implemented by the
// various BLS wrappers.
package common

// SecretKey represents a BLS secret or private key.
type SecretKey interface {
	PublicKey() PublicKey
	Sign(msg []byte) Signature
	Marshal() []byte
}

// PublicKey represents a BLS public key.
type PublicKey interface {
	Marshal() []byte
	Copy() PublicKey
	Equals(p2 PublicKey) bool
	IsInfinite() bool
}

// Signature represents a BLS signature.
type Signature interface {
	Verify(pubKey PublicKey, msg []byte) bool
	Marshal() []byte
	Copy() Signature
}
