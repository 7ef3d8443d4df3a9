package pointcloud

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/airside-sim/tugscan/logging"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

// pointValueDataTag encodes if the point has value data.
const pointValueDataTag = "rc|pv"

// LAS points are stored as int32 counts of lasScale; coordinates beyond this range lose precision.
const lasScale = 0.001

var lasRange = [2]float64{float64(math.MinInt32) * lasScale, float64(math.MaxInt32) * lasScale}

// NewFromFile reads a cloud from a .las or .pcd file.
func NewFromFile(fn string, logger logging.Logger) (PointCloud, error) {
	switch ext := filepath.Ext(fn); ext {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPCD(f)
	default:
		return nil, errors.Errorf("unsupported point cloud extension %q", ext)
	}
}

// NewFromLASFile reads a LAS file written by WriteToLASFile. Points outside the precise
// coordinate range are logged, not rejected.
func NewFromLASFile(fn string, logger logging.Logger) (PointCloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	n := lf.Header.NumberPoints
	values, err := lasValues(lf.VlrData, n)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", fn)
	}

	pc := NewWithPrealloc(n)
	for i := 0; i < n; i++ {
		rec, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		pd := rec.PointData()
		pos := r3.Vector{X: pd.X, Y: pd.Y, Z: pd.Z}
		if !inLASRange(pos) {
			logger.Warnw("LAS point outside the precise coordinate range", "point", pos, "range", lasRange)
		}
		d := NewBasicData().SetIntensity(pd.Intensity)
		if values != nil {
			d.SetValue(values[i])
		}
		if err := pc.Set(pos, d); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func inLASRange(p r3.Vector) bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if c < lasRange[0] || c > lasRange[1] {
			return false
		}
	}
	return true
}

// lasValues decodes the per-point value record, or returns nil when the file has none.
func lasValues(vlrs []lidario.VLR, n int) ([]int, error) {
	for _, vlr := range vlrs {
		if vlr.Description != pointValueDataTag {
			continue
		}
		if len(vlr.BinaryData) < 8*n {
			return nil, errors.Errorf("value record holds %d bytes for %d points", len(vlr.BinaryData), n)
		}
		out := make([]int, n)
		for i := range out {
			out[i] = int(binary.LittleEndian.Uint64(vlr.BinaryData[8*i:]))
		}
		return out, nil
	}
	return nil, nil
}

// WriteToLASFile writes the cloud as point format 0 records carrying intensity. When any
// point has a value, all values go in a variable length record, zero for points without one.
func WriteToLASFile(cloud PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()
	if err := lf.AddHeader(lidario.LasHeader{PointFormatID: 0}); err != nil {
		return err
	}

	withValues := cloud.MetaData().HasValue
	var values bytes.Buffer
	var word [8]byte
	cloud.Iterate(func(pos r3.Vector, d Data) bool {
		rec := &lidario.PointRecord0{
			X:             pos.X,
			Y:             pos.Y,
			Z:             pos.Z,
			BitField:      lidario.PointBitField{Value: 1 | 1<<3}, // return 1 of 1
			PointSourceID: 1,
		}
		var v int
		if d != nil {
			rec.Intensity = d.Intensity()
			if d.HasValue() {
				v = d.Value()
			}
		}
		if withValues {
			binary.LittleEndian.PutUint64(word[:], uint64(v))
			values.Write(word[:])
		}
		err = lf.AddLasPoint(rec)
		return err == nil
	})
	if err != nil || !withValues {
		return err
	}
	return lf.AddVLR(lidario.VLR{
		Description:             pointValueDataTag,
		BinaryData:              values.Bytes(),
		RecordLengthAfterHeader: values.Len(),
	})
}

// ToPCD writes the cloud in the PCD v0.7 format with x y z fields, plus an intensity field
// when any point has one.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	withIntensity := cloud.MetaData().HasIntensity
	header := "VERSION .7\n"
	if withIntensity {
		header += "FIELDS x y z intensity\nSIZE 4 4 4 4\nTYPE F F F F\nCOUNT 1 1 1 1\n"
	} else {
		header += "FIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\n"
	}
	header += fmt.Sprintf("WIDTH %d\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS %d\n", cloud.Size(), cloud.Size())
	switch outputType {
	case PCDAscii:
		header += "DATA ascii\n"
	case PCDBinary:
		header += "DATA binary\n"
	default:
		return errors.Errorf("unsupported PCD type %d", outputType)
	}
	if _, err := io.WriteString(out, header); err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType, withIntensity)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType, withIntensity bool) error {
	var err error
	cloud.Iterate(func(pos r3.Vector, d Data) bool {
		vals := []float64{pos.X, pos.Y, pos.Z}
		if withIntensity {
			var in uint16
			if d != nil {
				in = d.Intensity()
			}
			vals = append(vals, float64(in))
		}
		switch pcdtype {
		case PCDBinary:
			buf := make([]byte, 4*len(vals))
			for i, v := range vals {
				binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
			}
			_, err = out.Write(buf)
		case PCDAscii:
			strs := make([]string, 0, len(vals))
			for _, v := range vals {
				strs = append(strs, strconv.FormatFloat(v, 'f', 6, 64))
			}
			_, err = fmt.Fprintln(out, strings.Join(strs, " "))
		}
		return err == nil
	})
	return err
}

type pcdHeader struct {
	fields    []string
	points    int
	data      PCDType
	intensity int // field index, -1 when absent
}

// ReadPCD reads a PCD file with float x y z fields, in ascii or binary form. An intensity
// field is kept; any other field is skipped.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	in := bufio.NewReader(inRaw)
	header := pcdHeader{points: -1, intensity: -1}
	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "reading PCD header")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "FIELDS":
			header.fields = parts[1:]
			for i, f := range header.fields {
				if f == "intensity" {
					header.intensity = i
				}
			}
		case "TYPE":
			for _, t := range parts[1:] {
				if t != "F" {
					return nil, errors.Errorf("unsupported PCD field type %q", t)
				}
			}
		case "POINTS":
			if len(parts) != 2 {
				return nil, errors.Errorf("bad PCD line %q", line)
			}
			if header.points, err = strconv.Atoi(parts[1]); err != nil {
				return nil, errors.Wrap(err, "PCD POINTS")
			}
		}
		if parts[0] == "DATA" {
			if len(parts) != 2 {
				return nil, errors.Errorf("bad PCD line %q", line)
			}
			switch parts[1] {
			case "ascii":
				header.data = PCDAscii
			case "binary":
				header.data = PCDBinary
			default:
				return nil, errors.Errorf("unsupported PCD data %q", parts[1])
			}
			break
		}
	}
	if len(header.fields) < 3 || header.fields[0] != "x" || header.fields[1] != "y" || header.fields[2] != "z" {
		return nil, errors.Errorf("PCD fields must start with x y z, got %v", header.fields)
	}
	if header.points < 0 {
		return nil, errors.New("PCD header has no POINTS line")
	}

	pc := NewWithPrealloc(header.points)
	vals := make([]float64, len(header.fields))
	for i := 0; i < header.points; i++ {
		if err := readPCDRow(in, header, vals); err != nil {
			return nil, errors.Wrapf(err, "PCD point %d", i)
		}
		d := NewBasicData()
		if header.intensity >= 0 {
			d.SetIntensity(uint16(vals[header.intensity]))
		}
		if err := pc.Set(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, d); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func readPCDRow(in *bufio.Reader, header pcdHeader, vals []float64) error {
	if header.data == PCDBinary {
		buf := make([]byte, 4*len(vals))
		if _, err := io.ReadFull(in, buf); err != nil {
			return err
		}
		for i := range vals {
			vals[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])))
		}
		return nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return err
	}
	parts := strings.Fields(line)
	if len(parts) != len(vals) {
		return errors.Errorf("expected %d values, got %d", len(vals), len(parts))
	}
	for i, p := range parts {
		if vals[i], err = strconv.ParseFloat(p, 64); err != nil {
			return err
		}
	}
	return nil
}
