package packet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/gametype"
	"github.com/vango-dev/gamewire/pkg/msg"
	"golang.org/x/sync/errgroup"
)

// DefaultCompressThreshold is the smallest payload worth compressing.
const DefaultCompressThreshold = 256

// Operation names passed to Tracer.Start.
const (
	OpEncode = "encode"
	OpDecode = "decode"
)

// Observer is told about every packet a Codec encodes or decodes.
// Implementations must be safe for concurrent use.
type Observer interface {
	PacketEncoded(msgs []msg.Msg, size int)
	PacketDecoded(msgs []msg.Msg, size int)
	CodecError(op string, err error)
}

// Tracer starts a span around each encode or decode.
type Tracer interface {
	Start(ctx context.Context, op string) (context.Context, Span)
}

// Span is a running trace span.
type Span interface {
	End(msgs, size int, err error)
}

// Codec turns message lists into packets and back.
//
// The zero Codec is ready to use: unset fields take the NewCodec
// defaults on first use. A Codec must not be modified after its first
// use and is then safe for concurrent use.
type Codec struct {
	// Types is the type table messages are coded against. Its version is
	// written to and checked against every packet header.
	Types *gametype.Set

	// Compress enables brotli compression of payloads of at least
	// CompressThreshold bytes. A compressed payload is only kept when it
	// is smaller.
	Compress          bool
	CompressThreshold int

	// MaxPayload caps the payload, before and after decompression.
	MaxPayload int

	Observer Observer
	Tracer   Tracer

	once    sync.Once
	streams sync.Pool
}

// Option configures a Codec.
type Option func(*Codec)

// WithTypes sets the type table. The default is gametype.Default().
func WithTypes(set *gametype.Set) Option {
	return func(c *Codec) {
		c.Types = set
	}
}

// WithCompression enables compression of payloads of at least threshold
// bytes. A threshold of 0 uses DefaultCompressThreshold.
func WithCompression(threshold int) Option {
	return func(c *Codec) {
		c.Compress = true
		if threshold > 0 {
			c.CompressThreshold = threshold
		}
	}
}

// WithMaxPayload caps the payload size. Values outside 1..MaxPayloadSize
// are ignored.
func WithMaxPayload(n int) Option {
	return func(c *Codec) {
		if n > 0 && n <= MaxPayloadSize {
			c.MaxPayload = n
		}
	}
}

// WithObserver sets the packet observer.
func WithObserver(o Observer) Option {
	return func(c *Codec) {
		c.Observer = o
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(c *Codec) {
		c.Tracer = t
	}
}

// NewCodec creates a Codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	c.init()
	return c
}

// init fills unset fields with their defaults and prepares the stream
// pool. It runs once per Codec.
func (c *Codec) init() {
	c.once.Do(func() {
		if c.Types == nil {
			c.Types = gametype.Default()
		}
		if c.CompressThreshold <= 0 {
			c.CompressThreshold = DefaultCompressThreshold
		}
		if c.MaxPayload <= 0 || c.MaxPayload > MaxPayloadSize {
			c.MaxPayload = MaxPayloadSize
		}
		c.streams.New = func() any {
			return bitstream.New(c.MaxPayload, bitstream.WithTypes(c.Types))
		}
	})
}

// Version returns the protocol version written into packet headers.
func (c *Codec) Version() uint8 {
	c.init()
	return uint8(c.Types.Version())
}

// Encode encodes msgs into one packet.
func (c *Codec) Encode(msgs ...msg.Msg) ([]byte, error) {
	return c.EncodeContext(context.Background(), msgs...)
}

// EncodeContext is Encode with a context for tracing.
func (c *Codec) EncodeContext(ctx context.Context, msgs ...msg.Msg) (data []byte, err error) {
	c.init()
	if c.Tracer != nil {
		var span Span
		_, span = c.Tracer.Start(ctx, OpEncode)
		defer func() { span.End(len(msgs), len(data), err) }()
	}

	data, err = c.encode(msgs)
	if c.Observer != nil {
		if err != nil {
			c.Observer.CodecError(OpEncode, err)
		} else {
			c.Observer.PacketEncoded(msgs, len(data))
		}
	}
	return data, err
}

func (c *Codec) encode(msgs []msg.Msg) ([]byte, error) {
	s := c.streams.Get().(*bitstream.Stream)
	defer func() {
		s.Reset()
		c.streams.Put(s)
	}()

	for i, m := range msgs {
		if err := s.WriteUint8(uint8(m.Type())); err != nil {
			return nil, encodeErr(i, m.Type(), err)
		}
		if err := m.Serialize(s); err != nil {
			return nil, encodeErr(i, m.Type(), err)
		}
	}

	payload := s.Bytes()
	var flags Flags
	if c.Compress && len(payload) >= c.CompressThreshold {
		z, err := compress(payload)
		if err != nil {
			return nil, fmt.Errorf("packet: compress: %w", err)
		}
		if len(z) < len(payload) {
			payload = z
			flags |= FlagCompressed
		}
	}

	h := Header{Version: c.Version(), Flags: flags, Length: len(payload)}
	out := make([]byte, 0, HeaderSize+len(payload))
	out = h.appendTo(out)
	return append(out, payload...), nil
}

func encodeErr(i int, t msg.Type, err error) error {
	if errors.Is(err, bitstream.ErrBufferOverflow) {
		return fmt.Errorf("packet: message %d (%v): %w: %w", i, t, ErrPacketTooLarge, err)
	}
	return fmt.Errorf("packet: message %d (%v): %w", i, t, err)
}

// Decode decodes one packet. Any error in any message fails the whole
// packet; no partial result is returned.
func (c *Codec) Decode(data []byte) ([]msg.Msg, error) {
	return c.DecodeContext(context.Background(), data)
}

// DecodeContext is Decode with a context for tracing.
func (c *Codec) DecodeContext(ctx context.Context, data []byte) (msgs []msg.Msg, err error) {
	c.init()
	if c.Tracer != nil {
		var span Span
		_, span = c.Tracer.Start(ctx, OpDecode)
		defer func() { span.End(len(msgs), len(data), err) }()
	}

	msgs, err = c.decode(data)
	if c.Observer != nil {
		if err != nil {
			c.Observer.CodecError(OpDecode, err)
		} else {
			c.Observer.PacketDecoded(msgs, len(data))
		}
	}
	return msgs, err
}

func (c *Codec) decode(data []byte) ([]msg.Msg, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Version != c.Version() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, h.Version, c.Version())
	}
	if h.Length > c.MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPacketTooLarge, h.Length, c.MaxPayload)
	}
	switch n := len(data) - HeaderSize; {
	case n < h.Length:
		return nil, fmt.Errorf("packet: payload of %d bytes, header says %d: %w", n, h.Length, io.ErrUnexpectedEOF)
	case n > h.Length:
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, n-h.Length)
	}

	payload := data[HeaderSize:]
	if h.Flags.Has(FlagCompressed) {
		if payload, err = decompress(payload, c.MaxPayload); err != nil {
			return nil, err
		}
	}

	s := bitstream.FromBytes(payload, bitstream.WithTypes(c.Types))
	var msgs []msg.Msg
	for i := 0; s.Remaining() > 0; i++ {
		code, err := s.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("packet: message %d: %w", i, err)
		}
		m, err := msg.New(msg.Type(code))
		if err != nil {
			return nil, fmt.Errorf("packet: message %d: %w", i, err)
		}
		if err := m.Deserialize(s); err != nil {
			return nil, fmt.Errorf("packet: message %d (%v): %w", i, m.Type(), err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// DecodeAll decodes packets concurrently with at most workers goroutines
// (unbounded when workers <= 0). The result is in packet order. The first
// error cancels the remaining work and is returned.
func (c *Codec) DecodeAll(ctx context.Context, packets [][]byte, workers int) ([][]msg.Msg, error) {
	out := make([][]msg.Msg, len(packets))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range packets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			msgs, err := c.DecodeContext(gctx, p)
			if err != nil {
				return fmt.Errorf("packet %d: %w", i, err)
			}
			out[i] = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
