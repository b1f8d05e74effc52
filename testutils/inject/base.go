package inject

import (
	"context"

	"go.viam.com/pursuit/components/base"
)

// Base is an injected TankBase.
type Base struct {
	base.TankBase
	TankDriveFunc func(ctx context.Context, left, right float64, extra map[string]interface{}) error
	StopFunc      func(ctx context.Context, extra map[string]interface{}) error
	WidthFunc     func(ctx context.Context) (float64, error)
}

// NewBase returns an injected base that forwards to b for any function left unset.
func NewBase(b base.TankBase) *Base {
	return &Base{TankBase: b}
}

// TankDrive calls the injected TankDrive or the real version.
func (b *Base) TankDrive(ctx context.Context, left, right float64, extra map[string]interface{}) error {
	if b.TankDriveFunc == nil {
		return b.TankBase.TankDrive(ctx, left, right, extra)
	}
	return b.TankDriveFunc(ctx, left, right, extra)
}

// Stop calls the injected Stop or the real version.
func (b *Base) Stop(ctx context.Context, extra map[string]interface{}) error {
	if b.StopFunc == nil {
		return b.TankBase.Stop(ctx, extra)
	}
	return b.StopFunc(ctx, extra)
}

// Width calls the injected Width or the real version.
func (b *Base) Width(ctx context.Context) (float64, error) {
	if b.WidthFunc == nil {
		return b.TankBase.Width(ctx)
	}
	return b.WidthFunc(ctx)
}
