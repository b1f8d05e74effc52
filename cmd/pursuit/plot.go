package main

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/pursuit/path"
	"go.viam.com/pursuit/spatialmath"
)

const plotSize = 6 * vg.Inch

// savePlot draws the path and the trace the base travelled. The image format follows
// the file extension.
func savePlot(filename string, p *path.Path, trace []spatialmath.Pose2D) error {
	plt := plot.New()
	plt.Title.Text = "pure pursuit"
	plt.X.Label.Text = "x"
	plt.Y.Label.Text = "y"
	plt.Add(plotter.NewGrid())

	pathXYs := lo.Map(p.Waypoints(), func(wp path.Waypoint, _ int) plotter.XY {
		return plotter.XY{X: wp.X(), Y: wp.Y()}
	})
	traceXYs := lo.Map(trace, func(pose spatialmath.Pose2D, _ int) plotter.XY {
		return plotter.XY{X: pose.Point.X, Y: pose.Point.Y}
	})

	pathLine, pathPoints, err := plotter.NewLinePoints(plotter.XYs(pathXYs))
	if err != nil {
		return errors.Wrap(err, "plotting path")
	}
	pathLine.Color = color.RGBA{B: 200, A: 255}
	pathLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	pathPoints.Shape = draw.CircleGlyph{}
	pathPoints.Color = pathLine.Color
	pathPoints.Radius = vg.Points(1.5)

	traceLine, err := plotter.NewLine(plotter.XYs(traceXYs))
	if err != nil {
		return errors.Wrap(err, "plotting trace")
	}
	traceLine.Color = color.RGBA{R: 200, A: 255}
	traceLine.Width = vg.Points(1.5)

	plt.Add(pathLine, pathPoints, traceLine)
	plt.Legend.Add("path", pathLine, pathPoints)
	plt.Legend.Add("trace", traceLine)
	plt.Legend.Top = true

	if err := plt.Save(plotSize, plotSize, filename); err != nil {
		return errors.Wrapf(err, "saving plot to %q", filename)
	}
	return nil
}
