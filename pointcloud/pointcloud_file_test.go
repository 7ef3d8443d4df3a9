package pointcloud

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/airside-sim/tugscan/logging"
)

func sampleCloud(t *testing.T) PointCloud {
	t.Helper()
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 1.5, Y: -2.25, Z: 0.25}, NewValueData(2).SetIntensity(100)), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: 10, Y: 20, Z: 30}, NewValueData(5)), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: -3, Y: 0, Z: 4}, nil), test.ShouldBeNil)
	return pc
}

func TestLASRoundTrip(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pc := sampleCloud(t)
	fn := filepath.Join(t.TempDir(), "scan.las")
	test.That(t, WriteToLASFile(pc, fn), test.ShouldBeNil)

	back, err := NewFromFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 3)

	pts := Points(back)
	for i, want := range Points(pc) {
		test.That(t, pts[i].X, test.ShouldAlmostEqual, want.X, 0.01)
		test.That(t, pts[i].Y, test.ShouldAlmostEqual, want.Y, 0.01)
		test.That(t, pts[i].Z, test.ShouldAlmostEqual, want.Z, 0.01)
	}

	values := []int{}
	back.Iterate(func(_ r3.Vector, d Data) bool {
		test.That(t, d.HasValue(), test.ShouldBeTrue)
		values = append(values, d.Value())
		return true
	})
	test.That(t, values, test.ShouldResemble, []int{2, 5, 0})
}

func TestPCDAscii(t *testing.T) {
	pc := sampleCloud(t)
	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)

	out := buf.String()
	test.That(t, out, test.ShouldStartWith, "VERSION .7\nFIELDS x y z intensity\n")
	test.That(t, out, test.ShouldContainSubstring, "POINTS 3\nDATA ascii\n")
	test.That(t, out, test.ShouldContainSubstring, "1.500000 -2.250000 0.250000 100.000000\n")

	back, err := ReadPCD(strings.NewReader(out))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Points(back), test.ShouldResemble, Points(pc))
	d, ok := back.At(1.5, -2.25, 0.25)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Intensity(), test.ShouldEqual, 100)
}

func TestPCDBinary(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 0.5, Y: 1, Z: -2}, nil), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: 4, Y: 8, Z: 16}, nil), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDBinary), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "FIELDS x y z\n")

	fn := filepath.Join(t.TempDir(), "scan.pcd")
	test.That(t, os.WriteFile(fn, buf.Bytes(), 0o600), test.ShouldBeNil)
	back, err := NewFromFile(fn, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Points(back), test.ShouldResemble, Points(pc))
}

func TestPCDErrors(t *testing.T) {
	test.That(t, ToPCD(New(), &bytes.Buffer{}, PCDType(7)), test.ShouldNotBeNil)

	_, err := ReadPCD(strings.NewReader("VERSION .7\nFIELDS x y\nPOINTS 0\nDATA ascii\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(strings.NewReader("VERSION .7\nFIELDS x y z\nPOINTS 2\nDATA ascii\n1 2 3\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(strings.NewReader("VERSION .7\nFIELDS x y z\nPOINTS 1\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewFromFile("cloud.ply", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
