package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact file names inside the model directory.
const (
	ClassifierFile     = "fault_classifier.json"
	RegressorFile      = "restoration_model.json"
	StationEncoderFile = "plant_encoder.json"
	FaultEncoderFile   = "fault_encoder.json"
)

// Feature vector widths fixed by the training job.
const (
	ClassifierFeatures = 5
	RegressorFeatures  = 7
)

// Artifacts holds whatever loaded successfully. A nil field means that
// artifact is unavailable and the dependent prediction degrades.
type Artifacts struct {
	Classifier     *Classifier
	Regressor      *Regressor
	StationEncoder *LabelEncoder
	FaultEncoder   *LabelEncoder
}

// Loaded reports which artifacts are available, keyed by file name.
func (a *Artifacts) Loaded() map[string]bool {
	return map[string]bool{
		ClassifierFile:     a.Classifier != nil,
		RegressorFile:      a.Regressor != nil,
		StationEncoderFile: a.StationEncoder != nil,
		FaultEncoderFile:   a.FaultEncoder != nil,
	}
}

// LoadArtifacts reads all four artifacts from dir. A failure to load one
// artifact is logged and leaves its field nil; it never aborts the others.
func LoadArtifacts(dir string, logger *slog.Logger) *Artifacts {
	a := &Artifacts{}

	if f, err := readForest(filepath.Join(dir, ClassifierFile)); err != nil {
		logger.Warn("could not load fault classifier", "file", ClassifierFile, "error", err)
	} else if c, err := newSizedClassifier(f); err != nil {
		logger.Warn("invalid fault classifier", "file", ClassifierFile, "error", err)
	} else {
		a.Classifier = c
	}

	if f, err := readForest(filepath.Join(dir, RegressorFile)); err != nil {
		logger.Warn("could not load restoration model", "file", RegressorFile, "error", err)
	} else if r, err := newSizedRegressor(f); err != nil {
		logger.Warn("invalid restoration model", "file", RegressorFile, "error", err)
	} else {
		a.Regressor = r
	}

	if e, err := readEncoder(filepath.Join(dir, StationEncoderFile)); err != nil {
		logger.Warn("could not load station encoder", "file", StationEncoderFile, "error", err)
	} else {
		a.StationEncoder = e
	}

	if e, err := readEncoder(filepath.Join(dir, FaultEncoderFile)); err != nil {
		logger.Warn("could not load fault encoder", "file", FaultEncoderFile, "error", err)
	} else {
		a.FaultEncoder = e
	}

	return a
}

// WriteJSON writes an artifact to path, used by the offline export and mock tooling.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newSizedClassifier(f Forest) (*Classifier, error) {
	if f.NFeatures != ClassifierFeatures {
		return nil, fmt.Errorf("n_features %d, want %d", f.NFeatures, ClassifierFeatures)
	}
	return NewClassifier(f)
}

func newSizedRegressor(f Forest) (*Regressor, error) {
	if f.NFeatures != RegressorFeatures {
		return nil, fmt.Errorf("n_features %d, want %d", f.NFeatures, RegressorFeatures)
	}
	return NewRegressor(f)
}

func readForest(path string) (Forest, error) {
	var f Forest
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

func readEncoder(path string) (*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e LabelEncoder
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &e, nil
}
