package store

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// The zstd encoder and decoder are safe for concurrent EncodeAll/DecodeAll
// and expensive to create.
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

// compressVHDL returns the zstd frame of text, or nil for empty text.
func compressVHDL(text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}
	enc, _, err := codec()
	if err != nil {
		return nil, fmt.Errorf("compress vhdl: %w", err)
	}
	return enc.EncodeAll([]byte(text), nil), nil
}

// decompressVHDL reverses compressVHDL.
func decompressVHDL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	_, dec, err := codec()
	if err != nil {
		return "", fmt.Errorf("decompress vhdl: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("decompress vhdl: %w", err)
	}
	return string(out), nil
}
