package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"pursuit"}, args...))
	return out.String(), err
}

func TestValidateAction(t *testing.T) {
	out, err := runApp(t, "validate", "--config", "testdata/s_curve.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "testdata/s_curve.json is valid")

	_, err = runApp(t, "validate", "--config", "testdata/invalid.json")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lookahead_distance")

	_, err = runApp(t, "validate")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSimulateAction(t *testing.T) {
	plotFile := filepath.Join(t.TempDir(), "trace.png")
	out, err := runApp(t, "simulate", "-c", "testdata/s_curve.json", "--lookahead", "0.5", "--plot", plotFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "finished")
	test.That(t, out, test.ShouldContainSubstring, "cross-track max")
	test.That(t, out, test.ShouldContainSubstring, "0.500")
	test.That(t, out, test.ShouldContainSubstring, "plot saved to")

	info, err := os.Stat(plotFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}

func TestSimulateMaxSteps(t *testing.T) {
	out, err := runApp(t, "simulate", "-c", "testdata/s_curve.json", "--max-steps", "5", "--dt", "5ms", "--trace")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "max steps")
}
