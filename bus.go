package motion

import (
	"context"
	"errors"
	"fmt"
)

// ErrBusFault reports an I2C transfer that did not complete as requested.
var ErrBusFault = errors.New("i2c bus fault")

var ErrBusBusy = fmt.Errorf("%w: I2C engine is busy (command not completed)", ErrBusFault)

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// AddressableTransactor performs a combined transfer: w is written without a stop
// condition, then len(r) bytes are read after a repeated start. Implementations must
// not let another transfer on the same bus interleave between the two messages.
type AddressableTransactor interface {
	TxToAddr(ctx context.Context, address byte, w, r []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	AddressableTransactor
}
