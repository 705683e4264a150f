package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mklimuk/motion/accel"
)

var ErrSessionClosed = errors.New("session closed")

var (
	_ io.Reader = &Session{}
	_ io.Seeker = &Session{}
	_ io.Closer = &Session{}
)

// SnapshotSource produces one formatted record per call.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

type sessionState int

const (
	armed sessionState = iota
	drained
)

func (s sessionState) String() string {
	if s == drained {
		return "drained"
	}
	return "armed"
}

// Session is one open read cursor on a sensor. The first read at cursor 0 acquires a
// fresh snapshot; once it has been delivered every read returns io.EOF until the
// session is seeked back to 0. Bus faults leave the session armed, so retrying the
// read issues a new transfer.
type Session struct {
	ctx    context.Context
	source SnapshotSource
	policy accel.CapacityPolicy

	mx     sync.Mutex
	cursor int64
	state  sessionState
	closed bool
}

func NewSession(ctx context.Context, source SnapshotSource, policy accel.CapacityPolicy) *Session {
	return &Session{ctx: ctx, source: source, policy: policy}
}

// Read implements io.Reader using the context the session was opened with.
func (s *Session) Read(p []byte) (int, error) {
	return s.ReadContext(s.ctx, p)
}

func (s *Session) ReadContext(ctx context.Context, p []byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.state == drained {
		return 0, io.EOF
	}
	rec, err := s.source.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not read snapshot: %w", err)
	}
	if len(p) < len(rec) && s.policy == accel.AllOrNothing {
		return 0, io.EOF
	}
	n := copy(p, rec)
	s.cursor += int64(n)
	s.state = drained
	return n, nil
}

// Seek moves the cursor. Moving it back to 0 re-arms the session.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = s.cursor + offset
	default:
		return s.cursor, fmt.Errorf("unsupported whence %d", whence)
	}
	if next < 0 {
		return s.cursor, fmt.Errorf("negative position %d", next)
	}
	s.cursor = next
	s.state = drained
	if next == 0 {
		s.state = armed
	}
	return s.cursor, nil
}

// Offset returns the current cursor position.
func (s *Session) Offset() int64 {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.cursor
}

func (s *Session) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.closed = true
	return nil
}
