package accel

import (
	"encoding/binary"
)

// RawSample holds the signed 16-bit fields of one acquisition in frame field order.
// Values are raw LSB counts; no scaling to physical units is applied.
type RawSample []int16

// Field locates one 16-bit value inside the telemetry block.
type Field struct {
	Name   string
	Offset int
}

// RegisterFrame describes the contiguous telemetry block of a sensor model: where it
// starts, how long it is and how its fields are paired. Byte order is a property of
// the chip, so every model carries its own.
type RegisterFrame struct {
	Start  byte
	Length int
	Order  binary.ByteOrder
	Fields []Field
}

// Decode reassembles the frame fields from raw, which must hold at least Length bytes.
// Bytes not covered by a field are ignored.
func (f RegisterFrame) Decode(raw []byte) RawSample {
	sample := make(RawSample, len(f.Fields))
	for i, field := range f.Fields {
		sample[i] = int16(f.Order.Uint16(raw[field.Offset : field.Offset+2]))
	}
	return sample
}
