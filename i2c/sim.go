package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/motion"
)

var _ motion.I2CBus = &SimBus{}

var ErrNACK = errors.New("address not acknowledged")

type simDevice struct {
	regs       [256]byte
	ptr        byte
	writeFault error
	readFault  error
}

// SimBus is an in-memory I2C bus. Every attached address exposes a 256 byte register
// file with an auto-incrementing register pointer, which is how the supported motion
// sensors behave on a burst access. It is used by tests and by the cli `sim` adapter.
type SimBus struct {
	mx      sync.Mutex
	devices map[byte]*simDevice
	txCount int
}

func NewSimBus() *SimBus {
	return &SimBus{devices: make(map[byte]*simDevice)}
}

// Attach makes address respond on the bus.
func (b *SimBus) Attach(address byte) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if _, ok := b.devices[address]; !ok {
		b.devices[address] = &simDevice{}
	}
}

// SetRegisters stores data starting at register start.
func (b *SimBus) SetRegisters(address, start byte, data ...byte) {
	b.mx.Lock()
	defer b.mx.Unlock()
	dev := b.device(address)
	for i, v := range data {
		dev.regs[start+byte(i)] = v
	}
}

func (b *SimBus) Register(address, reg byte) byte {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.device(address).regs[reg]
}

// SetWriteFault makes every write to address fail with err until cleared with nil.
func (b *SimBus) SetWriteFault(address byte, err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.device(address).writeFault = err
}

// SetReadFault makes every read from address fail with err until cleared with nil.
func (b *SimBus) SetReadFault(address byte, err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.device(address).readFault = err
}

// Transactions returns the number of transfers issued so far.
func (b *SimBus) Transactions() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.txCount
}

func (b *SimBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.TxToAddr(ctx, address, nil, buffer)
}

func (b *SimBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.TxToAddr(ctx, address, buffer, nil)
}

func (b *SimBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.txCount++
	dev, ok := b.devices[address]
	if !ok {
		return fmt.Errorf("%w: %#02x", ErrNACK, address)
	}
	if len(w) > 0 {
		if dev.writeFault != nil {
			return dev.writeFault
		}
		trace(ctx, "tx", address, w)
		dev.ptr = w[0]
		for _, v := range w[1:] {
			dev.regs[dev.ptr] = v
			dev.ptr++
		}
	}
	if len(r) > 0 {
		if dev.readFault != nil {
			return dev.readFault
		}
		for i := range r {
			r[i] = dev.regs[dev.ptr]
			dev.ptr++
		}
		trace(ctx, "rx", address, r)
	}
	return nil
}

func (b *SimBus) Release(ctx context.Context) error {
	return nil
}

func (b *SimBus) device(address byte) *simDevice {
	dev, ok := b.devices[address]
	if !ok {
		dev = &simDevice{}
		b.devices[address] = dev
	}
	return dev
}
