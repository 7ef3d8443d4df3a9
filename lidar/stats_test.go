package lidar

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestRanges(t *testing.T) {
	res := &ScanResult{Hits: []Hit{{Distance: 2}, {Distance: 4}, {Distance: 9}}}
	rs, err := res.Ranges()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rs.Count, test.ShouldEqual, 3)
	test.That(t, rs.Min, test.ShouldEqual, 2.)
	test.That(t, rs.Max, test.ShouldEqual, 9.)
	test.That(t, rs.Mean, test.ShouldAlmostEqual, 5)
	test.That(t, rs.Median, test.ShouldEqual, 4.)
	// population standard deviation of 2, 4, 9
	test.That(t, rs.StdDev, test.ShouldAlmostEqual, 2.943920288775949)

	_, err = (&ScanResult{}).Ranges()
	test.That(t, errors.Is(err, ErrNoHits), test.ShouldBeTrue)
}
