package accel

import (
	"encoding/binary"
)

// ADXL345 register map, see https://www.analog.com/media/en/technical-documentation/data-sheets/ADXL345.pdf
const (
	adxl345RegPowerCtl = 0x2D
	adxl345RegDataX0   = 0x32

	adxl345Measure = 0x08
)

const (
	ADXL345AddrLow  byte = 0x53 // SDO/ALT ADDRESS low
	ADXL345AddrHigh byte = 0x1D
)

// ADXL345 is the Analog Devices 3-axis accelerometer. Axis data is stored low byte
// first (DATAX0, DATAX1, ...).
var ADXL345 = Model{
	Name:           "adxl345",
	NameBase:       "adxl345-",
	DefaultAddress: ADXL345AddrLow,
	AltAddress:     ADXL345AddrHigh,
	Frame: RegisterFrame{
		Start:  adxl345RegDataX0,
		Length: 6,
		Order:  binary.LittleEndian,
		Fields: []Field{{"x", 0}, {"y", 2}, {"z", 4}},
	},
	Format: SnapshotFormat{
		Layout: "X:%d Y:%d Z:%d\n",
		MaxLen: 64,
	},
	Capacity: Truncate,
	Init:     InitPermissive,
	buildInit: func(Config) InitSequence {
		// leave standby
		return InitSequence{{adxl345RegPowerCtl, adxl345Measure}}
	},
}
