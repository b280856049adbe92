// Command validate checks that a model directory and a data directory honour
// the contracts the service relies on: all four artifacts load with the
// expected feature widths, the encoders cover every station and historical
// fault type, classifier outputs decode to known faults, and the reference
// datasets load and agree with each other.
//
// Usage:
//
//	go run ./cmd/validate -model-dir models -data-dir data [-stations stations.csv]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/model"
	"github.com/couchcryptid/grid-eta-service/internal/predict"
	"github.com/couchcryptid/grid-eta-service/internal/refdata"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// samples span calm to storm, including values outside training ranges.
var samples = []domain.Conditions{
	{Temperature: -10, WindSpeed: 0},
	{Temperature: 25, WindSpeed: 5},
	{Temperature: 32.5, WindSpeed: 15},
	{Temperature: 45, WindSpeed: 60},
	{Temperature: 60, WindSpeed: 250},
}

func main() {
	modelDir := flag.String("model-dir", "models", "directory containing model artifacts")
	dataDir := flag.String("data-dir", "data", "directory containing reference datasets")
	stationsFile := flag.String("stations", "", "optional stations CSV (default: built-in table)")
	verbose := flag.Bool("v", false, "log loader warnings")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if code := run(os.Stdout, *modelDir, *dataDir, *stationsFile, logger); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, modelDir, dataDir, stationsFile string, logger *slog.Logger) int {
	fmt.Fprintln(out, "=== Grid ETA Artifact Validation ===")
	fmt.Fprintln(out)

	artifacts := model.LoadArtifacts(modelDir, logger)
	catalog := refdata.Load(dataDir, stationsFile, logger)

	phases := []*phase{
		validateArtifacts(artifacts),
		validateReferenceData(catalog),
		validateEncoderCoverage(artifacts, catalog),
		validatePredictions(artifacts, catalog),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Artifacts ──

func validateArtifacts(a *model.Artifacts) *phase {
	p := &phase{name: "Phase 1: Model artifacts"}
	for _, name := range []string{model.ClassifierFile, model.RegressorFile, model.StationEncoderFile, model.FaultEncoderFile} {
		if !a.Loaded()[name] {
			p.errorf("%s did not load (run with -v for the loader error)", name)
		}
	}
	if a.Classifier != nil && a.Classifier.NFeatures() != model.ClassifierFeatures {
		p.errorf("classifier expects %d features, want %d", a.Classifier.NFeatures(), model.ClassifierFeatures)
	}
	if a.Regressor != nil && a.Regressor.NFeatures() != model.RegressorFeatures {
		p.errorf("regressor expects %d features, want %d", a.Regressor.NFeatures(), model.RegressorFeatures)
	}
	return p
}

// ── Phase 2: Reference data ──

func validateReferenceData(c *refdata.Catalog) *phase {
	p := &phase{name: "Phase 2: Reference data"}
	if err := c.CheckReadiness(context.Background()); err != nil {
		p.errorf("catalog not ready: %v", err)
	}

	known := map[string]bool{}
	for _, st := range c.Stations() {
		known[st.ID] = true
		if !validPoint(st.Location) {
			p.errorf("station %s: coordinates %v out of range", st.ID, st.Location)
		}
	}
	for _, sc := range c.Centers() {
		if sc.Name == "" {
			p.errorf("service center at %v has no name", sc.Location)
		}
		if !validPoint(sc.Location) {
			p.errorf("service center %q: coordinates %v out of range", sc.Name, sc.Location)
		}
	}

	history, err := c.History()
	if err != nil {
		p.notef("fault history unavailable: %v", err)
		return p
	}
	unknown := map[string]int{}
	for _, r := range history.Recent(history.Len()) {
		if !known[r.StationID] {
			unknown[r.StationID]++
		}
	}
	for id, n := range unknown {
		p.errorf("fault history references unknown station %q (%d records)", id, n)
	}
	p.notef("%d stations, %d service centers, %d fault records", len(c.Stations()), len(c.Centers()), history.Len())
	return p
}

// ── Phase 3: Encoder coverage ──

func validateEncoderCoverage(a *model.Artifacts, c *refdata.Catalog) *phase {
	p := &phase{name: "Phase 3: Encoder coverage"}
	if a.StationEncoder != nil {
		for _, st := range c.Stations() {
			if _, err := a.StationEncoder.Encode(st.ID); err != nil {
				p.errorf("station encoder: %v", err)
			}
		}
	}
	if a.FaultEncoder != nil {
		if history, err := c.History(); err == nil {
			for _, ft := range history.FaultTypes() {
				if _, err := a.FaultEncoder.Encode(ft); err != nil {
					p.errorf("fault encoder: %v", err)
				}
			}
		}
	}
	return p
}

// ── Phase 4: Prediction samples ──
// Runs both models over every station and the sample conditions through the
// same feature assembly the service uses.

func validatePredictions(a *model.Artifacts, c *refdata.Catalog) *phase {
	p := &phase{name: "Phase 4: Prediction samples"}
	if a.Classifier == nil || a.Regressor == nil || a.StationEncoder == nil || a.FaultEncoder == nil {
		p.notef("skipped: not all artifacts loaded")
		return p
	}
	features := predict.NewAssembler(a.StationEncoder, a.FaultEncoder)
	now := time.Now()

	var raw, clamped int
	for _, st := range c.Stations() {
		for _, cond := range samples {
			x, err := features.ClassifierFeatures(st, now.Month(), cond)
			if err != nil {
				p.errorf("station %s: %v", st.ID, err)
				continue
			}
			code, err := a.Classifier.Predict(x)
			if err != nil {
				p.errorf("station %s: classifier: %v", st.ID, err)
				continue
			}
			fault, err := features.DecodeFault(code)
			if err != nil {
				p.errorf("station %s: classifier output %d does not decode: %v", st.ID, code, err)
				continue
			}

			x, err = features.RegressorFeatures(st, fault, now.Hour(), cond)
			if err != nil {
				p.errorf("station %s: %v", st.ID, err)
				continue
			}
			hours, err := a.Regressor.Predict(x)
			switch {
			case err != nil:
				p.errorf("station %s: regressor: %v", st.ID, err)
			case math.IsNaN(hours) || math.IsInf(hours, 0):
				p.errorf("station %s: regressor returned %v", st.ID, hours)
			default:
				raw++
				if hours < predict.MinRestorationHours || hours > predict.MaxRestorationHours {
					clamped++
				}
			}
		}
	}
	if clamped > 0 {
		p.notef("%d of %d restoration predictions fall outside [%g, %g] h and will be clamped",
			clamped, raw, predict.MinRestorationHours, predict.MaxRestorationHours)
	}
	return p
}

func validPoint(pt domain.Point) bool {
	return pt.Lat >= -90 && pt.Lat <= 90 && pt.Lng >= -180 && pt.Lng <= 180
}
