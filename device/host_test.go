package device

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/i2c"
)

func TestHost_CountedNames(t *testing.T) {
	bus := i2c.NewSimBus()
	bus.Attach(0x53)
	bus.Attach(0x1D)
	bus.Attach(0x54)
	h := NewHost(bus)
	ctx := context.Background()

	a, err := h.Attach(ctx, accel.ADXL345, 0x53)
	require.NoError(t, err)
	b, err := h.Attach(ctx, accel.ADXL345, 0x1D)
	require.NoError(t, err)
	assert.Equal(t, "adxl345-0", a.Name())
	assert.Equal(t, "adxl345-1", b.Name())

	require.NoError(t, h.Detach("adxl345-0"))
	c, err := h.Attach(ctx, accel.ADXL345, 0x54)
	require.NoError(t, err)
	assert.Equal(t, "adxl345-2", c.Name())
	assert.Equal(t, []string{"adxl345-1", "adxl345-2"}, h.Devices())
}

func TestHost_FixedName(t *testing.T) {
	bus := i2c.NewSimBus()
	bus.Attach(0x68)
	bus.Attach(0x69)
	h := NewHost(bus)
	ctx := context.Background()

	s, err := h.Attach(ctx, accel.MPU6050, 0x68)
	require.NoError(t, err)
	assert.Equal(t, "mpu6050", s.Name())

	_, err = h.Attach(ctx, accel.MPU6050, 0x69)
	assert.ErrorIs(t, err, ErrNameTaken)

	require.NoError(t, h.Detach("mpu6050"))
	_, err = h.Attach(ctx, accel.MPU6050, 0x69)
	assert.NoError(t, err)
}

func TestHost_AttachAppliesInit(t *testing.T) {
	bus := i2c.NewSimBus()
	bus.Attach(0x68)
	bus.SetRegisters(0x68, 0x6B, 0x40)
	h := NewHost(bus)

	_, err := h.Attach(context.Background(), accel.MPU6050, 0x68, WithSensorConfig(accel.Config{GyroRange: 0x02, AccelRange: 0x01}))
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), bus.Register(0x68, 0x6B))
	assert.Equal(t, byte(0x02), bus.Register(0x68, 0x1B))
	assert.Equal(t, byte(0x01), bus.Register(0x68, 0x1C))
}

func TestHost_InitPolicy(t *testing.T) {
	tests := []struct {
		name     string
		model    accel.Model
		opts     []AttachOpt
		attached bool
	}{
		{"adxl345 permissive by default", accel.ADXL345, nil, true},
		{"adxl345 strict override", accel.ADXL345, []AttachOpt{WithStrictInit(true)}, false},
		{"mpu6050 strict by default", accel.MPU6050, nil, false},
		{"mpu6050 permissive override", accel.MPU6050, []AttachOpt{WithStrictInit(false)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := i2c.NewSimBus()
			bus.Attach(tt.model.DefaultAddress)
			bus.SetWriteFault(tt.model.DefaultAddress, errors.New("nack"))
			h := NewHost(bus)

			s, err := h.Attach(context.Background(), tt.model, tt.model.DefaultAddress, tt.opts...)
			if !tt.attached {
				assert.ErrorIs(t, err, accel.ErrConfiguration)
				assert.Nil(t, s)
				assert.Empty(t, h.Devices())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{s.Name()}, h.Devices())
			bus.SetWriteFault(tt.model.DefaultAddress, nil)
			sess, err := h.Open(context.Background(), s.Name())
			require.NoError(t, err)
			_, err = io.ReadAll(sess)
			assert.NoError(t, err)
		})
	}
}

func TestHost_Limits(t *testing.T) {
	bus := i2c.NewSimBus()
	bus.Attach(0x53)
	bus.Attach(0x1D)
	h := NewHost(bus, WithMaxDevices(1))
	ctx := context.Background()

	_, err := h.Attach(ctx, accel.ADXL345, 0x53)
	require.NoError(t, err)
	_, err = h.Attach(ctx, accel.ADXL345, 0x1D)
	assert.ErrorIs(t, err, ErrNoResources)

	h = NewHost(bus)
	_, err = h.Attach(ctx, accel.ADXL345, 0x53)
	require.NoError(t, err)
	_, err = h.Attach(ctx, accel.MPU6050, 0x53)
	assert.ErrorIs(t, err, ErrAddressInUse)
}

func TestHost_OpenAndRead(t *testing.T) {
	bus := i2c.NewSimBus()
	bus.Attach(0x68)
	bus.SetRegisters(0x68, 0x3B, 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x0F, 0x0F, 0x00, 0x04, 0x00, 0x05, 0x00, 0x06)
	h := NewHost(bus)
	ctx := context.Background()
	_, err := h.Attach(ctx, accel.MPU6050, 0x68)
	require.NoError(t, err)

	sess, err := h.Open(ctx, "mpu6050")
	require.NoError(t, err)
	buf := make([]byte, 128)
	n, err := sess.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ACC: X=     1 Y=     2 Z=     3; GYRO: X=     4 Y=     5 Z=     6\n", string(buf[:n]))
	n, err = sess.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = h.Open(ctx, "adxl345-0")
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.ErrorIs(t, h.Detach("adxl345-0"), ErrUnknownDevice)
}

func TestHost_SessionAfterDetach(t *testing.T) {
	bus := i2c.NewSimBus()
	bus.Attach(0x53)
	h := NewHost(bus)
	ctx := context.Background()
	_, err := h.Attach(ctx, accel.ADXL345, 0x53)
	require.NoError(t, err)

	sess, err := h.Open(ctx, "adxl345-0")
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.Empty(t, h.Devices())

	_, err = sess.Read(make([]byte, 64))
	assert.ErrorIs(t, err, motion.ErrDetached)
}

// blockingBus stalls combined transfers until released.
type blockingBus struct {
	*i2c.SimBus
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	if len(r) > 0 {
		b.once.Do(func() { close(b.entered) })
		<-b.release
	}
	return b.SimBus.TxToAddr(ctx, address, w, r)
}

func TestHost_DetachWaitsForRead(t *testing.T) {
	bus := &blockingBus{SimBus: i2c.NewSimBus(), entered: make(chan struct{}), release: make(chan struct{})}
	bus.Attach(0x53)
	h := NewHost(bus)
	ctx := context.Background()
	_, err := h.Attach(ctx, accel.ADXL345, 0x53)
	require.NoError(t, err)
	sess, err := h.Open(ctx, "adxl345-0")
	require.NoError(t, err)

	readDone := make(chan error, 1)
	go func() {
		_, err := sess.Read(make([]byte, 64))
		readDone <- err
	}()
	<-bus.entered

	detached := make(chan struct{})
	go func() {
		assert.NoError(t, h.Detach("adxl345-0"))
		close(detached)
	}()
	select {
	case <-detached:
		t.Fatal("detach completed during an in-flight read")
	case <-time.After(20 * time.Millisecond):
	}
	close(bus.release)
	assert.NoError(t, <-readDone)
	<-detached
}
