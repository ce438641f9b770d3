// Package sample writes synthetic scale export files for trying the tool
// without a memory card.
package sample

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/fields"
)

// File names written by WriteFiles.
const (
	DataFile    = "DATA1.CSV"
	ProfileFile = "PROF1.CSV"
)

// Options controls generation. Zero values take the defaults below.
type Options struct {
	// Count is the number of measurements. Default 5.
	Count int

	// Seed makes the output reproducible. Default 1.
	Seed int64

	// Start is the first measurement time. Default 2024-01-16 07:30.
	Start time.Time

	// Interval separates measurements. Default one week.
	Interval time.Duration

	// Female selects the female profile.
	Female bool

	Age    int     // default 40
	Height float64 // cm, default 175
	Weight float64 // kg, default 80
	Model  string  // default BC-601
}

func (o Options) withDefaults() Options {
	if o.Count <= 0 {
		o.Count = 5
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	if o.Start.IsZero() {
		o.Start = time.Date(2024, 1, 16, 7, 30, 0, 0, time.UTC)
	}
	if o.Interval <= 0 {
		o.Interval = 7 * 24 * time.Hour
	}
	if o.Age <= 0 {
		o.Age = 40
	}
	if o.Height <= 0 {
		o.Height = 175
	}
	if o.Weight <= 0 {
		o.Weight = 80
	}
	if o.Model == "" {
		o.Model = "BC-601"
	}
	return o
}

func (o Options) gender() string {
	if o.Female {
		return "2"
	}
	return "1"
}

// line builds one export line: the leading non-code metadata cells, then
// code/value pairs. Text values are quoted the way the scale writes them.
type line struct {
	cells []string
}

func (l *line) pair(code, value string) {
	l.cells = append(l.cells, code, value)
}

func (l *line) text(code, value string) {
	l.pair(code, strconv.Quote(value))
}

func (l *line) num(code string, v float64, decimals int) {
	l.pair(code, strconv.FormatFloat(v, 'f', decimals, 64))
}

// checksum is a one-byte XOR over the line so far, as two hex digits.
func (l *line) checksum() {
	var x byte
	for _, b := range []byte(strings.Join(l.cells, ",")) {
		x ^= b
	}
	l.pair(fields.CodeChecksum, fmt.Sprintf("%02X", x))
}

func (l *line) String() string {
	return strings.Join(l.cells, ",") + "\r\n"
}

func header() *line {
	return &line{cells: []string{"0", "16",
		fields.CodeLengthUnit, "1",
		fields.CodeMassUnit, "1",
		fields.CodeUnitMarker2, "3",
		fields.CodeUnitMarker3, "4",
	}}
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Generate returns the contents of a DATA file and a PROF file. The same
// options always produce the same bytes.
func Generate(opts Options) (data, profile []byte) {
	o := opts.withDefaults()
	rng := rand.New(rand.NewSource(o.Seed))

	fat := 20.0
	if o.Female {
		fat = 30.0
	}
	weight := o.Weight
	hm := o.Height / 100

	var sb strings.Builder
	for i := 0; i < o.Count; i++ {
		at := o.Start.Add(time.Duration(i) * o.Interval)
		if i > 0 {
			weight += rng.Float64()*1.2 - 0.7
			fat += rng.Float64()*0.8 - 0.5
		}
		w := round(weight, 1)
		f := round(fat, 1)
		muscle := round(100-f-(3+rng.Float64())*100/w, 1)
		water := round((100-f)*0.72+rng.Float64()*0.4, 1)
		muscleKg := w * muscle / 100

		l := header()
		l.text(fields.CodeModel, o.Model)
		l.text(fields.CodeDate, at.Format("02/01/2006"))
		l.text(fields.CodeTime, at.Format("15:04:05"))
		l.pair(fields.CodeBodyType, "0")
		l.pair(fields.CodeGender, o.gender())
		l.pair(fields.CodeAge, strconv.Itoa(o.Age))
		l.num(fields.CodeHeight, o.Height, 1)
		l.pair(fields.CodeActivity, "2")
		l.num(fields.CodeWeight, w, 1)
		l.num(fields.CodeBMI, w/(hm*hm), 1)
		l.num(fields.CodeFat, f, 1)
		l.num(fields.CodeFatRightArm, f*0.8+rng.Float64(), 1)
		l.num(fields.CodeFatLeftArm, f*0.82+rng.Float64(), 1)
		l.num(fields.CodeFatRightLeg, f*0.9+rng.Float64(), 1)
		l.num(fields.CodeFatLeftLeg, f*0.9+rng.Float64(), 1)
		l.num(fields.CodeFatTrunk, f*1.1+rng.Float64(), 1)
		l.num(fields.CodeMuscle, muscle, 1)
		l.num(fields.CodeMuscleRArm, muscleKg*0.056, 1)
		l.num(fields.CodeMuscleLArm, muscleKg*0.055, 1)
		l.num(fields.CodeMuscleRLeg, muscleKg*0.167, 1)
		l.num(fields.CodeMuscleLLeg, muscleKg*0.166, 1)
		l.num(fields.CodeMuscleTrunk, muscleKg*0.556, 1)
		l.num(fields.CodeBone, w*0.04, 1)
		l.num(fields.CodeVisceral, math.Max(1, math.Round(f/2.5)), 0)
		l.num(fields.CodeMetabolicAge, float64(o.Age)+math.Round((f-20)/2), 0)
		l.num(fields.CodeDailyCalories, 10*w+6.25*o.Height-5*float64(o.Age)+5+rng.Float64()*50, 0)
		l.num(fields.CodeWater, water, 1)
		l.checksum()
		sb.WriteString(l.String())
	}

	p := header()
	p.text(fields.CodeModel, o.Model)
	p.pair(fields.CodeBodyType, "0")
	p.pair(fields.CodeGender, o.gender())
	p.pair(fields.CodeAge, strconv.Itoa(o.Age))
	p.num(fields.CodeHeight, o.Height, 1)
	p.pair(fields.CodeActivity, "2")
	p.checksum()

	return []byte(sb.String()), []byte(p.String())
}

// WriteFiles generates both files into dir, creating it if needed, and
// returns their paths.
func WriteFiles(dir string, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to create sample directory").
			WithContext(errors.ContextPath, dir)
	}

	data, profile := Generate(opts)
	var paths []string
	for _, f := range []struct {
		name    string
		content []byte
	}{{DataFile, data}, {ProfileFile, profile}} {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.content, 0644); err != nil {
			return nil, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write sample file").
				WithContext(errors.ContextPath, path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
