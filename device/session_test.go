package device

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/accel"
)

type countingSource struct {
	record []byte
	err    error
	calls  int
}

func (c *countingSource) Snapshot(ctx context.Context) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.record, nil
}

func TestSession_SingleShot(t *testing.T) {
	src := &countingSource{record: []byte("X:-1 Y:0 Z:32767\n")}
	s := NewSession(context.Background(), src, accel.Truncate)

	buf := make([]byte, 64)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "X:-1 Y:0 Z:32767\n", string(buf[:n]))
	assert.Equal(t, int64(n), s.Offset())

	n, err = s.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, src.calls, "drained session must not touch the bus")
}

func TestSession_ReadAll(t *testing.T) {
	src := &countingSource{record: []byte("ACC: X=     1 Y=     2 Z=     3; GYRO: X=     4 Y=     5 Z=     6\n")}
	s := NewSession(context.Background(), src, accel.AllOrNothing)

	out, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, src.record, out)
	assert.Equal(t, 1, src.calls)
}

func TestSession_BusFaultKeepsArmed(t *testing.T) {
	src := &countingSource{err: motion.ErrBusFault}
	s := NewSession(context.Background(), src, accel.Truncate)

	buf := make([]byte, 64)
	n, err := s.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, motion.ErrBusFault)
	assert.Equal(t, int64(0), s.Offset())

	src.err = nil
	src.record = []byte("X:1 Y:2 Z:3\n")
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "X:1 Y:2 Z:3\n", string(buf[:n]))
	assert.Equal(t, 2, src.calls, "retry must issue a new transfer")
}

func TestSession_Capacity(t *testing.T) {
	record := []byte("ACC: X=     1 Y=     2 Z=     3; GYRO: X=     4 Y=     5 Z=     6\n")
	tests := []struct {
		name     string
		policy   accel.CapacityPolicy
		capacity int
		expected string
		err      error
		offset   int64
	}{
		{"all-or-nothing short buffer", accel.AllOrNothing, len(record) - 1, "", io.EOF, 0},
		{"all-or-nothing exact buffer", accel.AllOrNothing, len(record), string(record), nil, int64(len(record))},
		{"truncate short buffer", accel.Truncate, 10, string(record[:10]), nil, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(context.Background(), &countingSource{record: record}, tt.policy)
			buf := make([]byte, tt.capacity)
			n, err := s.Read(buf)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, string(buf[:n]))
			assert.Equal(t, tt.offset, s.Offset())
		})
	}
}

func TestSession_AllOrNothingStaysArmed(t *testing.T) {
	record := []byte("ACC: X=     1 Y=     2 Z=     3; GYRO: X=     4 Y=     5 Z=     6\n")
	s := NewSession(context.Background(), &countingSource{record: record}, accel.AllOrNothing)

	n, err := s.Read(make([]byte, 8))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	buf := make([]byte, 128)
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, record, buf[:n])
}

func TestSession_SeekRearms(t *testing.T) {
	src := &countingSource{record: []byte("X:1 Y:2 Z:3\n")}
	s := NewSession(context.Background(), src, accel.Truncate)
	buf := make([]byte, 64)

	_, err := s.Read(buf)
	require.NoError(t, err)

	pos, err := s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	pos, err = s.Seek(-5, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)
	_, err = s.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	_, err = s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
	_, err = s.Seek(0, io.SeekEnd)
	assert.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestSession_EmptyBufferAndClose(t *testing.T) {
	src := &countingSource{record: []byte("X:1 Y:2 Z:3\n")}
	s := NewSession(context.Background(), src, accel.Truncate)

	n, err := s.Read(nil)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
	assert.Equal(t, 0, src.calls)

	require.NoError(t, s.Close())
	_, err = s.Read(make([]byte, 8))
	assert.True(t, errors.Is(err, ErrSessionClosed))
	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
