package lidar

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/airside-sim/tugscan/pointcloud"
)

// Output selects what a scan produces besides its result. Files are written to
// Dir/Name.<ext>; an added point cloud object is named Name.
type Output struct {
	Dir     string `json:"dir"`
	Name    string `json:"name"`
	CSV     bool   `json:"csv"`
	LAS     bool   `json:"las"`
	PCD     bool   `json:"pcd"`
	AddMesh bool   `json:"add_mesh"`
}

func (o Output) writesFiles() bool {
	return o.CSV || o.LAS || o.PCD
}

func (o Output) validate() error {
	if !o.writesFiles() && !o.AddMesh {
		return nil
	}
	if o.Name == "" {
		return errors.New("scan output needs a name")
	}
	if strings.ContainsRune(o.Name, filepath.Separator) {
		return errors.Errorf("scan output name %q must not contain a path separator", o.Name)
	}
	if o.writesFiles() && o.Dir == "" {
		return errors.New("scan output needs a directory")
	}
	return nil
}

var csvHeader = []string{"x", "y", "z", "distance", "object"}

func (rs *RotatingScanner) writeOutputs(res *ScanResult, out Output) error {
	if out.writesFiles() {
		if err := os.MkdirAll(out.Dir, 0o750); err != nil {
			return errors.Wrap(err, "creating scan output directory")
		}
	}
	base := filepath.Join(out.Dir, out.Name)
	if out.CSV {
		if err := writeCSV(base+".csv", res.Hits); err != nil {
			return err
		}
		res.Files = append(res.Files, base+".csv")
	}
	if out.LAS {
		if err := pointcloud.WriteToLASFile(res.Cloud, base+".las"); err != nil {
			return errors.Wrap(err, "writing LAS")
		}
		res.Files = append(res.Files, base+".las")
	}
	if out.PCD {
		if err := writePCD(base+".pcd", res.Cloud); err != nil {
			return err
		}
		res.Files = append(res.Files, base+".pcd")
	}
	if out.AddMesh {
		res.MeshObject = rs.scene.AddPointCloud(out.Name, pointcloud.Points(res.Cloud))
	}
	for _, f := range res.Files {
		rs.logger.Debugw("scan output written", "file", f)
	}
	return nil
}

func writeCSV(path string, hits []Hit) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating CSV")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, h := range hits {
		if err := w.Write([]string{
			formatFloat(h.Position.X),
			formatFloat(h.Position.Y),
			formatFloat(h.Position.Z),
			formatFloat(h.Distance),
			h.Object,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePCD(path string, cloud pointcloud.PointCloud) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating PCD")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pointcloud.ToPCD(cloud, f, pointcloud.PCDAscii)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
