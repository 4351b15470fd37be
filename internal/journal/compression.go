// internal/journal/compression.go
package journal

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// CompressionOptions configures how manifest bodies are stored
type CompressionOptions struct {
	// Minimum size in bytes before compressing
	MinSize int
	// Compression level (1=fastest, 4=best)
	Level int
}

func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		MinSize: 256,
		Level:   2,
	}
}

// codec pools zstd encoders and decoders
type codec struct {
	opts     CompressionOptions
	encoders sync.Pool
	decoders sync.Pool
}

func newCodec(opts CompressionOptions) (*codec, error) {
	level := zstd.EncoderLevel(opts.Level)
	if level < zstd.SpeedFastest || level > zstd.SpeedBestCompression {
		return nil, fmt.Errorf("invalid compression level %d", opts.Level)
	}

	c := &codec{opts: opts}
	c.encoders.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(level),
			zstd.WithEncoderConcurrency(1),
		)
		return enc
	}
	c.decoders.New = func() interface{} {
		dec, _ := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
		)
		return dec
	}
	return c, nil
}

// compress leaves small bodies as they are and reports whether it compressed
func (c *codec) compress(body []byte) ([]byte, bool) {
	if len(body) < c.opts.MinSize {
		return body, false
	}

	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)

	return enc.EncodeAll(body, make([]byte, 0, len(body)/2)), true
}

func (c *codec) decompress(body []byte) ([]byte, error) {
	dec := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(dec)

	return dec.DecodeAll(body, nil)
}
