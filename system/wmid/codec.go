package wmid

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	// ErrLengthMismatch is returned when a firmware response buffer does
	// not have the declared length for its call shape
	ErrLengthMismatch = errors.New("firmware response length mismatch")
	// ErrUnexpectedType is returned when the firmware answers with a
	// value shape the call does not allow
	ErrUnexpectedType = errors.New("unexpected firmware value type")
)

type valueKind int

const (
	kindBuffer valueKind = iota
	kindInteger
)

// Value is the tagged result of a firmware method evaluation. The
// firmware may answer with a raw byte buffer or with an integer; all
// tag dispatch happens here so callers only ever see a buffer of the
// declared length or a normalized uint64.
type Value struct {
	kind    valueKind
	buffer  []byte
	integer uint64
}

// BufferValue wraps a raw byte buffer returned by the firmware
func BufferValue(b []byte) Value {
	return Value{kind: kindBuffer, buffer: b}
}

// IntegerValue wraps an integer returned by the firmware
func IntegerValue(v uint64) Value {
	return Value{kind: kindInteger, integer: v}
}

// Buffer returns the raw byte buffer, or ErrUnexpectedType if the
// firmware did not answer with a buffer
func (v Value) Buffer() ([]byte, error) {
	if v.kind != kindBuffer {
		return nil, ErrUnexpectedType
	}
	return v.buffer, nil
}

// Uint64 normalizes the value to an unsigned 64-bit integer. The
// firmware may answer with a 32-bit or 64-bit integer, or a buffer of
// either width.
func (v Value) Uint64() (uint64, error) {
	switch v.kind {
	case kindInteger:
		return v.integer, nil
	case kindBuffer:
		switch len(v.buffer) {
		case 4:
			return uint64(binary.LittleEndian.Uint32(v.buffer)), nil
		case 8:
			return binary.LittleEndian.Uint64(v.buffer), nil
		}
	}
	return 0, ErrUnexpectedType
}

// Battery control function bits in the availability bitmask
const (
	FunctionHealthMode      uint8 = 1
	FunctionCalibrationMode uint8 = 2
)

// GetBatteryControlRequest queries the availability and state of the
// battery control functions. The firmware is always called with battery
// number 1 and query flag 1; this yields the state of every function in
// one response.
type GetBatteryControlRequest struct {
	BatteryNo     uint8
	FunctionQuery uint8
	// 2 reserved bytes
}

func (r GetBatteryControlRequest) Bytes() []byte {
	b := make([]byte, getBatteryControlRequestLength)
	b[0] = r.BatteryNo
	b[1] = r.FunctionQuery
	return b
}

// GetBatteryControlResponse is the 8-byte battery status record: the
// availability bitmask, a 2-byte return code, and one status byte per
// function.
type GetBatteryControlResponse struct {
	FunctionList   uint8
	Return         [2]uint8
	FunctionStatus [5]uint8
}

func DecodeGetBatteryControlResponse(v Value) (GetBatteryControlResponse, error) {
	var resp GetBatteryControlResponse
	buf, err := v.Buffer()
	if err != nil {
		return resp, err
	}
	if len(buf) != getBatteryControlResponseLength {
		return resp, ErrLengthMismatch
	}
	resp.FunctionList = buf[0]
	copy(resp.Return[:], buf[1:3])
	copy(resp.FunctionStatus[:], buf[3:8])
	return resp, nil
}

// SetBatteryControlRequest toggles one battery control function
type SetBatteryControlRequest struct {
	BatteryNo      uint8
	FunctionMask   uint8
	FunctionStatus uint8
	// 5 reserved bytes
}

func (r SetBatteryControlRequest) Bytes() []byte {
	b := make([]byte, setBatteryControlRequestLength)
	b[0] = r.BatteryNo
	b[1] = r.FunctionMask
	b[2] = r.FunctionStatus
	return b
}

// SetBatteryControlResponse is the 4-byte acknowledgement of a set call
type SetBatteryControlResponse struct {
	Return uint16
	// 2 reserved bytes
}

func DecodeSetBatteryControlResponse(v Value) (SetBatteryControlResponse, error) {
	var resp SetBatteryControlResponse
	buf, err := v.Buffer()
	if err != nil {
		return resp, err
	}
	if len(buf) != setBatteryControlResponseLength {
		return resp, ErrLengthMismatch
	}
	resp.Return = binary.LittleEndian.Uint16(buf[0:2])
	return resp, nil
}

// EncodeApgeOperand encodes the single 64-bit operand of an ApgeAction
// call
func EncodeApgeOperand(operand uint64) []byte {
	b := make([]byte, apgeOperandLength)
	binary.LittleEndian.PutUint64(b, operand)
	return b
}
