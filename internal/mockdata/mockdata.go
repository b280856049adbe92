// Package mockdata builds a deterministic bundle of model artifacts and
// reference datasets for local runs and tests. The forests are random splits
// over plausible feature ranges, not trained models; they exercise the
// artifact contracts, not prediction quality.
package mockdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/model"
	"github.com/couchcryptid/grid-eta-service/internal/refdata"
)

// FaultTypes are the fault categories in the generated history.
var FaultTypes = []string{"Leak", "Motor Failure", "Sensor Fault", "Short Circuit"}

var statuses = []string{"COMPLETED", "IN_PROGRESS", "OPEN"}

// DefaultCenters is the generated service center table.
func DefaultCenters() []domain.ServiceCenter {
	return []domain.ServiceCenter{
		{Name: "Korangi IBC", Type: domain.ResourceServiceCenter, Location: domain.Point{Lat: 24.8405, Lng: 67.1221}},
		{Name: "Landhi IBC", Type: domain.ResourceServiceCenter, Location: domain.Point{Lat: 24.8522, Lng: 67.2040}},
		{Name: "Surjani IBC", Type: domain.ResourceServiceCenter, Location: domain.Point{Lat: 25.0140, Lng: 67.0520}},
		{Name: "Nazimabad IBC", Type: domain.ResourceServiceCenter, Location: domain.Point{Lat: 24.9180, Lng: 67.0330}},
		{Name: "Gulshan IBC", Type: domain.ResourceServiceCenter, Location: domain.Point{Lat: 24.9210, Lng: 67.0930}},
		{Name: "Clifton Maintenance Depot", Type: domain.ResourceMaintenanceHub, Location: domain.Point{Lat: 24.8130, Lng: 67.0300}},
	}
}

// Options controls bundle generation.
type Options struct {
	Seed    uint64
	Records int
	Trees   int
	Depth   int
}

// DefaultOptions produces a small but non-trivial bundle.
func DefaultOptions() Options {
	return Options{Seed: 42, Records: 500, Trees: 25, Depth: 6}
}

// Bundle is a complete set of artifacts and datasets.
type Bundle struct {
	Classifier     model.Forest
	Regressor      model.Forest
	StationEncoder *model.LabelEncoder
	FaultEncoder   *model.LabelEncoder
	Centers        []domain.ServiceCenter
	Faults         []refdata.FaultRecord
}

type featureRange struct{ lo, hi float64 }

// Feature ranges in column order, matching the assembled vectors.
var (
	classifierRanges = []featureRange{{0, 3}, {1, 12}, {15, 45}, {0, 60}, {-0.11, 0.21}}
	regressorRanges  = []featureRange{{0, 3}, {0, 3}, {0, 23}, {15, 45}, {0, 60}, {-0.11, 0.21}, {-6.6, 12.6}}
)

// Generate builds a bundle. The same options always yield the same bundle.
func Generate(opts Options) (Bundle, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	stations := refdata.DefaultStations()
	ids := make([]string, len(stations))
	for i, s := range stations {
		ids[i] = s.ID
	}
	sort.Strings(ids)
	stationEnc, err := model.NewLabelEncoder(ids)
	if err != nil {
		return Bundle{}, err
	}
	faultEnc, err := model.NewLabelEncoder(FaultTypes)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{
		Classifier: model.Forest{
			Kind:      model.KindClassifier,
			NFeatures: model.ClassifierFeatures,
			Trees:     make([]model.Tree, opts.Trees),
		},
		Regressor: model.Forest{
			Kind:      model.KindRegressor,
			NFeatures: model.RegressorFeatures,
			Trees:     make([]model.Tree, opts.Trees),
		},
		StationEncoder: stationEnc,
		FaultEncoder:   faultEnc,
		Centers:        DefaultCenters(),
	}
	for i := range opts.Trees {
		b.Classifier.Trees[i] = growTree(rng, classifierRanges, opts.Depth, func() []float64 {
			counts := make([]float64, len(FaultTypes))
			for j := range counts {
				counts[j] = float64(rng.IntN(20))
			}
			counts[rng.IntN(len(counts))] += 10
			return counts
		})
		b.Regressor.Trees[i] = growTree(rng, regressorRanges, opts.Depth, func() []float64 {
			return []float64{0.5 + rng.Float64()*30}
		})
	}

	b.Faults = make([]refdata.FaultRecord, opts.Records)
	for i := range b.Faults {
		st := stations[rng.IntN(len(stations))]
		b.Faults[i] = refdata.FaultRecord{
			Notification:  fmt.Sprintf("N-%06d", 100000+i),
			StationID:     st.ID,
			Area:          st.Area,
			FaultType:     FaultTypes[rng.IntN(len(FaultTypes))],
			Status:        statuses[rng.IntN(len(statuses))],
			RiskLabel:     st.RiskLabel,
			DurationHours: roundTo(1+rng.Float64()*23, 1),
			MaxTemp:       roundTo(25+rng.Float64()*17, 1),
			Wind:          roundTo(rng.Float64()*45, 1),
		}
	}
	return b, nil
}

// growTree builds a complete tree of the given depth in pre-order, so every
// child index is greater than its parent's.
func growTree(rng *rand.Rand, ranges []featureRange, depth int, leaf func() []float64) model.Tree {
	var nodes []model.Node
	var grow func(d int) int
	grow = func(d int) int {
		idx := len(nodes)
		if d == 0 {
			nodes = append(nodes, model.Node{Left: -1, Right: -1, Value: leaf()})
			return idx
		}
		f := rng.IntN(len(ranges))
		r := ranges[f]
		nodes = append(nodes, model.Node{Feature: f, Threshold: roundTo(r.lo+rng.Float64()*(r.hi-r.lo), 4)})
		left := grow(d - 1)
		right := grow(d - 1)
		nodes[idx].Left, nodes[idx].Right = left, right
		return idx
	}
	grow(depth)
	return model.Tree{Nodes: nodes}
}

// Write stores the artifacts in modelDir and the datasets in dataDir, creating
// both directories.
func (b Bundle) Write(modelDir, dataDir string) error {
	for _, dir := range []string{modelDir, dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	artifacts := map[string]any{
		model.ClassifierFile:     b.Classifier,
		model.RegressorFile:      b.Regressor,
		model.StationEncoderFile: b.StationEncoder,
		model.FaultEncoderFile:   b.FaultEncoder,
	}
	for name, v := range artifacts {
		if err := model.WriteJSON(filepath.Join(modelDir, name), v); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	centers := [][]string{{"Center Name", "Type", "Latitude", "Longitude"}}
	for _, c := range b.Centers {
		typ := "Service Center"
		if c.Type == domain.ResourceMaintenanceHub {
			typ = "Maintenance Hub"
		}
		centers = append(centers, []string{c.Name, typ, ftoa(c.Location.Lat), ftoa(c.Location.Lng)})
	}
	if err := writeCSV(filepath.Join(dataDir, refdata.ServiceCentersFile), centers); err != nil {
		return err
	}

	faults := [][]string{{
		"notification", "main_work_center", "area_name", "problem_code_text", "user_status",
		"kunda_risk_factor", "malfunction_end", "day_max_temp", "day_wind",
	}}
	for _, f := range b.Faults {
		faults = append(faults, []string{
			f.Notification, f.StationID, f.Area, f.FaultType, f.Status,
			f.RiskLabel, ftoa(f.DurationHours), ftoa(f.MaxTemp), ftoa(f.Wind),
		})
	}
	return writeCSV(filepath.Join(dataDir, refdata.FaultHistoryFile), faults)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
