package predict

import (
	"fmt"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
)

// Encoder maps a category label to the integer code used at training time.
type Encoder interface {
	Encode(label string) (int, error)
	Decode(code int) (string, error)
}

// Assembler builds the positional feature vectors the models were trained on.
// Column order is part of the model contract; reordering silently corrupts
// predictions.
type Assembler struct {
	stations Encoder
	faults   Encoder
}

// NewAssembler creates an assembler. Either encoder may be nil, in which case
// the vectors that need it cannot be built.
func NewAssembler(stations, faults Encoder) *Assembler {
	return &Assembler{stations: stations, faults: faults}
}

// ClassifierFeatures returns
//
//	[stationCode, month(1-12), temperature, windSpeed, riskPenalty]
func (a *Assembler) ClassifierFeatures(station domain.Station, month time.Month, c domain.Conditions) ([]float64, error) {
	stationCode, err := encode(a.stations, "station", station.ID)
	if err != nil {
		return nil, err
	}
	return []float64{
		float64(stationCode),
		float64(month),
		c.Temperature,
		c.WindSpeed,
		station.RiskPenalty,
	}, nil
}

// RegressorFeatures returns
//
//	[stationCode, faultCode, hourOfDay(0-23), temperature, windSpeed, riskPenalty, windSpeed*riskPenalty]
func (a *Assembler) RegressorFeatures(station domain.Station, fault string, hour int, c domain.Conditions) ([]float64, error) {
	stationCode, err := encode(a.stations, "station", station.ID)
	if err != nil {
		return nil, err
	}
	faultCode, err := encode(a.faults, "fault", fault)
	if err != nil {
		return nil, err
	}
	return []float64{
		float64(stationCode),
		float64(faultCode),
		float64(hour),
		c.Temperature,
		c.WindSpeed,
		station.RiskPenalty,
		c.WindSpeed * station.RiskPenalty,
	}, nil
}

// DecodeFault maps a classifier output code back to its fault label.
func (a *Assembler) DecodeFault(code int) (string, error) {
	if a.faults == nil {
		return "", errMissing("fault encoder")
	}
	return a.faults.Decode(code)
}

func encode(enc Encoder, kind, label string) (int, error) {
	if enc == nil {
		return 0, errMissing(kind + " encoder")
	}
	code, err := enc.Encode(label)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", kind, err)
	}
	return code, nil
}
