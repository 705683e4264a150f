package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gi2c "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/motion"
)

var _ motion.I2CBus = &GobotBus{}

var ErrUnsupportedTx = errors.New("combined transfer must select exactly one register")

// gobotConn is the part of a gobot I2C connection the bus relies on.
type gobotConn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	ReadBlockData(reg uint8, b []byte) error
	WriteByteData(reg uint8, val uint8) error
}

// GobotBus adapts a gobot I2C connector. Combined transfers go through the SMBus
// block read primitive (register select + repeated start read), so TxToAddr accepts
// a single register byte as the write part.
type GobotBus struct {
	mx    sync.Mutex
	dial  func(address int) (gobotConn, error)
	conns map[byte]gobotConn
}

func NewGobotBus(adaptor gi2c.Connector, busNr int) *GobotBus {
	return &GobotBus{
		dial: func(address int) (gobotConn, error) {
			conn, err := adaptor.GetI2cConnection(address, busNr)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		conns: make(map[byte]gobotConn),
	}
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.conn(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c address %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from i2c address %x: %d of %d bytes", address, n, len(buffer))
	}
	trace(ctx, "rx", address, buffer)
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.conn(address)
	if err != nil {
		return err
	}
	trace(ctx, "tx", address, buffer)
	// register + value goes out as SMBus write byte data
	if len(buffer) == 2 {
		err = conn.WriteByteData(buffer[0], buffer[1])
		if err != nil {
			return fmt.Errorf("could not write register %x at i2c address %x: %w", buffer[0], address, err)
		}
		return nil
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c address %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to i2c address %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	if len(r) == 0 {
		return b.WriteToAddr(ctx, address, w)
	}
	if len(w) == 0 {
		return b.ReadFromAddr(ctx, address, r)
	}
	if len(w) != 1 {
		return ErrUnsupportedTx
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.conn(address)
	if err != nil {
		return err
	}
	trace(ctx, "tx", address, w)
	err = conn.ReadBlockData(w[0], r)
	if err != nil {
		return fmt.Errorf("could not read block %x from i2c address %x: %w", w[0], address, err)
	}
	trace(ctx, "rx", address, r)
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for address, conn := range b.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close connection to %x: %w", address, err))
		}
		delete(b.conns, address)
	}
	return errors.Join(errs...)
}

func (b *GobotBus) conn(address byte) (gobotConn, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.dial(int(address))
	if err != nil {
		return nil, fmt.Errorf("could not open i2c connection to %x: %w", address, err)
	}
	b.conns[address] = conn
	return conn, nil
}
