package inject

import (
	"context"

	"github.com/golang/geo/r2"

	"go.viam.com/pursuit/control"
)

// PoseProvider is an injected control.PoseProvider.
type PoseProvider struct {
	control.PoseProvider
	PositionFunc func(ctx context.Context) (r2.Point, error)
	HeadingFunc  func(ctx context.Context) (float64, error)
}

// Position calls the injected Position or the real version.
func (p *PoseProvider) Position(ctx context.Context) (r2.Point, error) {
	if p.PositionFunc == nil {
		return p.PoseProvider.Position(ctx)
	}
	return p.PositionFunc(ctx)
}

// Heading calls the injected Heading or the real version.
func (p *PoseProvider) Heading(ctx context.Context) (float64, error) {
	if p.HeadingFunc == nil {
		return p.PoseProvider.Heading(ctx)
	}
	return p.HeadingFunc(ctx)
}
