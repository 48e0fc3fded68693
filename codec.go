package sizecache

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

/*
Codec is the compress/decompress transform applied to stored values.

Values are first encoded to JSON, then passed through Compress before
being stored. Get reverses both steps on every hit. Implementations must satisfy

    Decompress(Compress(b)) == b

for every input and must be safe for concurrent use.
*/
type Codec interface {
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// Names accepted by CodecByName.
const (
	CodecZstd = "zstd"
	CodecS2   = "s2"
	CodecGzip = "gzip"
	CodecLZ4  = "lz4"
)

// CodecByName returns a built-in codec.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case CodecZstd, "":
		return NewZstdCodec()
	case CodecS2:
		return S2Codec{}, nil
	case CodecGzip:
		return GzipCodec{Level: gzip.DefaultCompression}, nil
	case CodecLZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidConfig, name)
	}
}

// ZstdCodec compresses with Zstandard. The encoder and decoder are
// created once and shared; EncodeAll and DecodeAll are concurrency safe.
type ZstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstdCodec() (*ZstdCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCodec{enc: enc, dec: dec}, nil
}

func (z *ZstdCodec) Name() string { return CodecZstd }

func (z *ZstdCodec) Compress(src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, nil), nil
}

func (z *ZstdCodec) Decompress(src []byte) ([]byte, error) {
	return z.dec.DecodeAll(src, nil)
}

// S2Codec trades ratio for speed.
type S2Codec struct{}

func (S2Codec) Name() string { return CodecS2 }

func (S2Codec) Compress(src []byte) ([]byte, error) {
	return s2.Encode(nil, src), nil
}

func (S2Codec) Decompress(src []byte) ([]byte, error) {
	return s2.Decode(nil, src)
}

type GzipCodec struct {
	Level int
}

func (GzipCodec) Name() string { return CodecGzip }

func (g GzipCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.Level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GzipCodec) Decompress(src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// LZ4Codec uses the LZ4 frame format.
type LZ4Codec struct{}

func (LZ4Codec) Name() string { return CodecLZ4 }

func (LZ4Codec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4Codec) Decompress(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

// encodeValue produces the stored form of v: its JSON encoding, passed
// through codec when one is set. The payload is decoded once more and
// compared with v, so a value that would come back different from Get
// (interface-typed numbers, unexported fields, lossy MarshalJSON) is
// rejected here instead of being changed silently.
func encodeValue[V any](codec Codec, v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrCodec, err)
	}
	payload := data
	if codec != nil {
		payload, err = codec.Compress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s compress: %w", ErrCodec, codec.Name(), err)
		}
	}

	back, err := decodeValue[V](codec, payload)
	if err != nil {
		return nil, err
	}
	if !cmp.Equal(v, back, exportAll) {
		return nil, fmt.Errorf("%w: %T does not survive encoding unchanged", ErrCodec, v)
	}
	return payload, nil
}

// exportAll lets cmp look at unexported fields, which JSON drops.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func decodeValue[V any](codec Codec, payload []byte) (V, error) {
	var v V
	data := payload
	if codec != nil {
		var err error
		data, err = codec.Decompress(payload)
		if err != nil {
			return v, fmt.Errorf("%w: %s decompress: %w", ErrCodec, codec.Name(), err)
		}
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: decode: %w", ErrCodec, err)
	}
	return v, nil
}
