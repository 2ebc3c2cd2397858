package errors

import (
	stderrors "errors"
	"io"

	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/gametype"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
	"github.com/vango-dev/gamewire/pkg/transport"
)

var wireCodes = []struct {
	target error
	code   string
}{
	{packet.ErrPacketTooLarge, "W021"},
	{bitstream.ErrBufferOverflow, "W001"},
	{bitstream.ErrBufferUnderflow, "W002"},
	{bitstream.ErrUnknownType, "W003"},
	{bitstream.ErrValueOutOfRange, "W004"},
	{bitstream.ErrInvalidWidth, "W004"},
	{msg.ErrUnknownMsgType, "W005"},
	{msg.ErrTooMany, "W006"},
	{packet.ErrVersionMismatch, "W020"},
	{packet.ErrInvalidFlags, "W023"},
	{packet.ErrTrailingData, "W024"},
	{capture.ErrBadMagic, "W080"},
	{capture.ErrUnsupportedVersion, "W080"},
	{capture.ErrNotFound, "W081"},
	{capture.ErrInvalidKey, "W082"},
	{capture.ErrInvalidDirection, "W083"},
	{capture.ErrRecordTooLarge, "W083"},
	{gametype.ErrUnknownVersion, "W063"},
	{gametype.ErrInvalidDefinition, "W063"},
	{gametype.ErrDuplicateType, "W063"},
	{gametype.ErrEmptyName, "W063"},
	{transport.ErrClosed, "W041"},
	{transport.ErrNotBinary, "W041"},
	{msg.ErrInvalidJSON, "W100"},
	{io.ErrUnexpectedEOF, "W022"},
}

// FromWire wraps an error returned by the gamewire packages under the
// registered code matching its sentinel. Errors with no matching sentinel
// get W101.
func FromWire(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	for _, wc := range wireCodes {
		if stderrors.Is(err, wc.target) {
			return New(wc.code).Wrap(err)
		}
	}
	return New("W101").Wrap(err)
}
