package motion

import (
	"context"
	"errors"
	"fmt"
)

// WriteRegister writes a single byte register.
func WriteRegister(ctx context.Context, bus I2CBus, address, reg, value byte) error {
	err := bus.WriteToAddr(ctx, address, []byte{reg, value})
	if err != nil {
		return fault(fmt.Errorf("write register %#02x at %#02x: %w", reg, address, err))
	}
	return nil
}

// ReadBlock selects startReg and burst-reads length bytes in one combined transfer.
// Bytes are returned in wire order.
func ReadBlock(ctx context.Context, bus I2CBus, address, startReg byte, length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: invalid block length %d", ErrBusFault, length)
	}
	buf := make([]byte, length)
	err := bus.TxToAddr(ctx, address, []byte{startReg}, buf)
	if err != nil {
		return nil, fault(fmt.Errorf("read %d bytes from register %#02x at %#02x: %w", length, startReg, address, err))
	}
	return buf, nil
}

func fault(err error) error {
	if errors.Is(err, ErrBusFault) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBusFault, err)
}
