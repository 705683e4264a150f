package accel

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestADXL345_Decode(t *testing.T) {
	tests := []struct {
		given    []byte
		expected RawSample
	}{
		{[]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03}, RawSample{256, 512, 768}},
		{[]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}, RawSample{1, 2, 3}},
		{[]byte{0xFF, 0xFF, 0x00, 0x00, 0xFF, 0x7F}, RawSample{-1, 0, 32767}},
		{[]byte{0x00, 0x80, 0x18, 0xFC, 0xE8, 0x03}, RawSample{-32768, -1000, 1000}},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, ADXL345.Frame.Decode(test.given))
		})
	}
}

func TestMPU6050_Decode(t *testing.T) {
	tests := []struct {
		given    []byte
		expected RawSample
	}{
		{
			[]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0xAA, 0xBB, 0x00, 0x04, 0x00, 0x05, 0x00, 0x06},
			RawSample{1, 2, 3, 4, 5, 6},
		},
		{
			[]byte{0x40, 0x00, 0xC0, 0x00, 0xFF, 0xFF, 0x12, 0x34, 0x7F, 0xFF, 0x80, 0x00, 0x01, 0x00},
			RawSample{16384, -16384, -1, 32767, -32768, 256},
		},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, MPU6050.Frame.Decode(test.given))
		})
	}
}

func TestMPU6050_DecodeIgnoresTemperature(t *testing.T) {
	raw := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00, 0x04, 0x00, 0x05, 0x00, 0x06}
	first := MPU6050.Frame.Decode(raw)
	raw[6], raw[7] = 0xDE, 0xAD
	assert.Equal(t, first, MPU6050.Frame.Decode(raw))
}

func TestFrames(t *testing.T) {
	assert.Equal(t, byte(0x32), ADXL345.Frame.Start)
	assert.Equal(t, 6, ADXL345.Frame.Length)
	assert.Len(t, ADXL345.Frame.Fields, 3)
	assert.Equal(t, byte(0x3B), MPU6050.Frame.Start)
	assert.Equal(t, 14, MPU6050.Frame.Length)
	assert.Len(t, MPU6050.Frame.Fields, 6)
}
