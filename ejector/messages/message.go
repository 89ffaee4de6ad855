// Package messages maintains the reconciled in-memory set of pre-signed
// voluntary exit messages the ejector dispatches from. Source files are
// parsed through an explicit tagged union of the accepted formats, verified
// against the correct fork domain and deduplicated by content checksum.
package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/lidofinance/validator-ejector/crypto/keystore"
)

// MessageKind discriminates the accepted exit message file formats.
type MessageKind int

const (
	// PlainExitMessage is a bare signed voluntary exit JSON document.
	PlainExitMessage MessageKind = iota
	// EthdoWrappedExitMessage nests the signed exit under an "exit" key, the
	// layout ethdo produces.
	EthdoWrappedExitMessage
	// EncryptedMessage is an EIP-2335 keystore envelope holding one of the
	// plain formats.
	EncryptedMessage
)

// ExitMessage is a pre-signed voluntary exit sourced from an external store.
type ExitMessage struct {
	Epoch          uint64
	ValidatorIndex uint64
	Signature      [96]byte
}

// Signed converts the message into its consensus container form.
func (m *ExitMessage) Signed() *eth.SignedVoluntaryExit {
	sig := make([]byte, len(m.Signature))
	copy(sig, m.Signature[:])
	return &eth.SignedVoluntaryExit{
		Exit: &eth.VoluntaryExit{
			Epoch:          types.Epoch(m.Epoch),
			ValidatorIndex: types.ValidatorIndex(m.ValidatorIndex),
		},
		Signature: sig,
	}
}

// StoredMessage is an exit message together with its source bookkeeping. The
// fork version records the chain's current fork at validation time so fork
// rotations invalidate the entry.
type StoredMessage struct {
	Message     ExitMessage
	Checksum    string
	SourceID    string
	ForkVersion [4]byte
}

// ParseError explains why a source entry is not a usable exit message.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

// Unwrap returns the underlying cause, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

type signedExitJSON struct {
	Message   *voluntaryExitJSON `json:"message"`
	Signature string             `json:"signature"`
}

type voluntaryExitJSON struct {
	Epoch          string `json:"epoch"`
	ValidatorIndex string `json:"validator_index"`
}

type ethdoWrapJSON struct {
	Exit *json.RawMessage `json:"exit"`
}

// Parse decodes a source file into an exit message. The three accepted
// shapes are tried as an explicit union: an EIP-2335 keystore envelope is
// decrypted with the configured password and its plaintext re-dispatched, an
// ethdo wrapper is unwrapped, anything else must be a plain signed voluntary
// exit document. Failures come back as a *ParseError.
func Parse(raw []byte, password string) (*ExitMessage, MessageKind, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, PlainExitMessage, &ParseError{Reason: "empty file"}
	}
	if keystore.IsKeystoreShaped(trimmed) {
		if password == "" {
			return nil, EncryptedMessage, &ParseError{Reason: "encrypted message but no messages password configured"}
		}
		plaintext, err := keystore.Decrypt(trimmed, password)
		if err != nil {
			return nil, EncryptedMessage, &ParseError{Reason: "could not decrypt message", Err: err}
		}
		m, _, err := Parse(plaintext, password)
		return m, EncryptedMessage, err
	}
	wrap := &ethdoWrapJSON{}
	if err := json.Unmarshal(trimmed, wrap); err != nil {
		return nil, PlainExitMessage, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if wrap.Exit != nil {
		m, err := parsePlain(*wrap.Exit)
		return m, EthdoWrappedExitMessage, err
	}
	m, err := parsePlain(trimmed)
	return m, PlainExitMessage, err
}

func parsePlain(raw []byte) (*ExitMessage, error) {
	doc := &signedExitJSON{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if doc.Message == nil {
		return nil, &ParseError{Reason: "missing message section"}
	}
	epoch, err := strconv.ParseUint(doc.Message.Epoch, 10, 64)
	if err != nil {
		return nil, &ParseError{Reason: "invalid epoch", Err: err}
	}
	index, err := strconv.ParseUint(doc.Message.ValidatorIndex, 10, 64)
	if err != nil {
		return nil, &ParseError{Reason: "invalid validator index", Err: err}
	}
	sig, err := hexutil.Decode(doc.Signature)
	if err != nil {
		return nil, &ParseError{Reason: "invalid signature encoding", Err: err}
	}
	if len(sig) != 96 {
		return nil, &ParseError{Reason: fmt.Sprintf("signature is %d bytes, want 96", len(sig))}
	}
	m := &ExitMessage{Epoch: epoch, ValidatorIndex: index}
	copy(m.Signature[:], sig)
	return m, nil
}
