package lidar

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// RangeStats summarizes the distances of the returns of one scan.
type RangeStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// ErrNoHits is returned when summarizing a scan without returns.
var ErrNoHits = errors.New("scan has no returns")

// Ranges summarizes the distances of the scan's returns.
func (r *ScanResult) Ranges() (RangeStats, error) {
	if len(r.Hits) == 0 {
		return RangeStats{}, ErrNoHits
	}
	d := make(stats.Float64Data, 0, len(r.Hits))
	for _, h := range r.Hits {
		d = append(d, h.Distance)
	}
	var (
		out = RangeStats{Count: len(d)}
		err error
	)
	if out.Min, err = d.Min(); err != nil {
		return RangeStats{}, err
	}
	if out.Max, err = d.Max(); err != nil {
		return RangeStats{}, err
	}
	if out.Mean, err = d.Mean(); err != nil {
		return RangeStats{}, err
	}
	if out.Median, err = d.Median(); err != nil {
		return RangeStats{}, err
	}
	if out.StdDev, err = d.StandardDeviation(); err != nil {
		return RangeStats{}, err
	}
	return out, nil
}
