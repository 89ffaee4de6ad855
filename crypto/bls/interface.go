package bls

import "github.com/lidofinance/validator-ejector/crypto/bls/common"

// SecretKey represents a BLS secret or private key.
type SecretKey = common.SecretKey

// PublicKey represents a BLS public key.
type PublicKey = common.PublicKey

// Signature represents a BLS signature.
type Signature = common.Signature
