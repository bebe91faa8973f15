package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Base64Bytes is a []byte carried on the wire as a base64 string.
//
// encoding/json already emits []byte as base64, but on input it also
// accepts JSON number arrays. Binary API fields (key material) must be
// base64 strings, so this type rejects everything else.
type Base64Bytes []byte

func (b Base64Bytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

func (b *Base64Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("expected base64 string: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Tolerate unpadded standard base64 from clients.
		decoded, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("invalid base64: %w", err)
		}
	}

	*b = Base64Bytes(decoded)
	return nil
}
