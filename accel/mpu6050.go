package accel

import (
	"encoding/binary"
)

// MPU-6050 register map, see https://invensense.tdk.com/wp-content/uploads/2015/02/MPU-6000-Register-Map1.pdf
const (
	mpu6050RegGyroConfig  = 0x1B
	mpu6050RegAccelConfig = 0x1C
	mpu6050RegAccelXoutH  = 0x3B
	mpu6050RegPwrMgmt1    = 0x6B
)

const (
	MPU6050AddrLow  byte = 0x68 // AD0 low
	MPU6050AddrHigh byte = 0x69
)

// Full-scale selectors written verbatim into GYRO_CONFIG and ACCEL_CONFIG.
const (
	GyroFS500 byte = 0x01
	AccelFS2  byte = 0x00
)

// MPU6050 is the InvenSense accelerometer + gyroscope. Samples are stored high byte
// first; the temperature word between accel and gyro is skipped.
var MPU6050 = Model{
	Name:           "mpu6050",
	DefaultAddress: MPU6050AddrLow,
	AltAddress:     MPU6050AddrHigh,
	Frame: RegisterFrame{
		Start:  mpu6050RegAccelXoutH,
		Length: 14,
		Order:  binary.BigEndian,
		Fields: []Field{
			{"acc_x", 0}, {"acc_y", 2}, {"acc_z", 4},
			{"gyro_x", 8}, {"gyro_y", 10}, {"gyro_z", 12},
		},
	},
	Format: SnapshotFormat{
		Layout: "ACC: X=%6d Y=%6d Z=%6d; GYRO: X=%6d Y=%6d Z=%6d\n",
		MaxLen: 128,
	},
	Capacity: AllOrNothing,
	Init:     InitStrict,
	DefaultConfig: Config{
		GyroRange:  GyroFS500,
		AccelRange: AccelFS2,
	},
	buildInit: func(cfg Config) InitSequence {
		return InitSequence{
			{mpu6050RegPwrMgmt1, 0x00}, // clear SLEEP
			{mpu6050RegGyroConfig, cfg.GyroRange},
			{mpu6050RegAccelConfig, cfg.AccelRange},
		}
	},
}
