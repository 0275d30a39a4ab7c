// Package codec encodes documents as JSON with optional zstd compression.
package codec

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Marshal encodes v as JSON, compressing the result with zstd when compress is set.
func Marshal(v any, compress bool) ([]byte, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if !compress {
		return data, nil
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to create writer: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Unmarshal decodes data into v. Compressed payloads are detected by their
// zstd frame header, so callers do not need to know how the data was written.
func Unmarshal(data []byte, v any) error {
	if IsCompressed(data) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return fmt.Errorf("zstd: failed to create reader: %w", err)
		}
		defer dec.Close()

		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("zstd: failed to decompress: %w", err)
		}
		data = out
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// IsCompressed reports whether data starts with a zstd frame header.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
