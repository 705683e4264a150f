package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGobotConn struct {
	blockReads []byte
	byteWrites [][2]byte
	written    []byte
	data       []byte
	err        error
	closed     bool
}

func (c *fakeGobotConn) Read(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return copy(b, c.data), nil
}

func (c *fakeGobotConn) Write(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.written = append(c.written, b...)
	return len(b), nil
}

func (c *fakeGobotConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeGobotConn) ReadBlockData(reg uint8, b []byte) error {
	if c.err != nil {
		return c.err
	}
	c.blockReads = append(c.blockReads, reg)
	copy(b, c.data)
	return nil
}

func (c *fakeGobotConn) WriteByteData(reg uint8, val uint8) error {
	if c.err != nil {
		return c.err
	}
	c.byteWrites = append(c.byteWrites, [2]byte{reg, val})
	return nil
}

func newTestGobotBus(conns map[int]*fakeGobotConn) (*GobotBus, *int) {
	dials := 0
	bus := &GobotBus{
		dial: func(address int) (gobotConn, error) {
			dials++
			conn, ok := conns[address]
			if !ok {
				return nil, ErrNACK
			}
			return conn, nil
		},
		conns: make(map[byte]gobotConn),
	}
	return bus, &dials
}

func TestGobotBus_BlockRead(t *testing.T) {
	conn := &fakeGobotConn{data: []byte{0x10, 0x20, 0x30}}
	bus, dials := newTestGobotBus(map[int]*fakeGobotConn{0x68: conn})
	ctx := context.Background()

	r := make([]byte, 3)
	require.NoError(t, bus.TxToAddr(ctx, 0x68, []byte{0x3B}, r))
	require.NoError(t, bus.TxToAddr(ctx, 0x68, []byte{0x3B}, r))
	assert.Equal(t, []byte{0x10, 0x20, 0x30}, r)
	assert.Equal(t, []byte{0x3B, 0x3B}, conn.blockReads)
	assert.Equal(t, 1, *dials, "connection should be reused")
}

func TestGobotBus_Writes(t *testing.T) {
	conn := &fakeGobotConn{}
	bus, _ := newTestGobotBus(map[int]*fakeGobotConn{0x68: conn})
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x68, []byte{0x6B, 0x00}))
	require.NoError(t, bus.WriteToAddr(ctx, 0x68, []byte{0x75}))
	assert.Equal(t, [][2]byte{{0x6B, 0x00}}, conn.byteWrites)
	assert.Equal(t, []byte{0x75}, conn.written)
}

func TestGobotBus_Errors(t *testing.T) {
	cause := errors.New("remote I/O error")
	conn := &fakeGobotConn{err: cause}
	bus, _ := newTestGobotBus(map[int]*fakeGobotConn{0x68: conn})
	ctx := context.Background()

	assert.ErrorIs(t, bus.TxToAddr(ctx, 0x68, []byte{0x3B}, make([]byte, 14)), cause)
	assert.ErrorIs(t, bus.TxToAddr(ctx, 0x68, []byte{0x3B, 0x00}, make([]byte, 14)), ErrUnsupportedTx)
	assert.ErrorIs(t, bus.ReadFromAddr(ctx, 0x53, make([]byte, 1)), ErrNACK)
}

func TestGobotBus_Close(t *testing.T) {
	conn := &fakeGobotConn{data: []byte{0x00}}
	bus, _ := newTestGobotBus(map[int]*fakeGobotConn{0x53: conn})
	require.NoError(t, bus.ReadFromAddr(context.Background(), 0x53, make([]byte, 1)))
	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}
