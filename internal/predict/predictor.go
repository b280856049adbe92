package predict

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/model"
	"github.com/couchcryptid/grid-eta-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Restoration bounds in hours. Model output outside the band is extrapolation
// and is clamped.
const (
	MinRestorationHours     = 1.0
	MaxRestorationHours     = 48.0
	NominalRestorationHours = 4.0
)

var errMissingDependency = errors.New("model dependency not loaded")

func errMissing(what string) error {
	return fmt.Errorf("%w: %s", errMissingDependency, what)
}

// Classifier predicts a fault code from the classifier feature vector.
type Classifier interface {
	Predict(x []float64) (int, error)
}

// Regressor predicts restoration hours from the regressor feature vector.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

// Models bundles the loaded model dependencies. Nil fields are allowed.
type Models struct {
	Classifier     Classifier
	Regressor      Regressor
	StationEncoder Encoder
	FaultEncoder   Encoder
}

// ModelsFromArtifacts converts loaded artifacts, keeping missing ones nil.
func ModelsFromArtifacts(a *model.Artifacts) Models {
	var m Models
	if a.Classifier != nil {
		m.Classifier = a.Classifier
	}
	if a.Regressor != nil {
		m.Regressor = a.Regressor
	}
	if a.StationEncoder != nil {
		m.StationEncoder = a.StationEncoder
	}
	if a.FaultEncoder != nil {
		m.FaultEncoder = a.FaultEncoder
	}
	return m
}

// Predictor produces best-effort fault and restoration predictions. It never
// returns an error: failures degrade to FaultUnknown or the nominal duration.
type Predictor struct {
	classifier Classifier
	regressor  Regressor
	features   *Assembler
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Predictor.
func New(m Models, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Predictor {
	return &Predictor{
		classifier: m.Classifier,
		regressor:  m.Regressor,
		features:   NewAssembler(m.StationEncoder, m.FaultEncoder),
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// PredictFault returns the most likely fault category for the station under
// the given conditions, using the current month.
func (p *Predictor) PredictFault(station domain.Station, c domain.Conditions) string {
	fault, err := p.predictFault(station, c)
	if err != nil {
		p.metrics.Fallbacks.WithLabelValues("fault_model").Inc()
		p.logger.Warn("fault prediction failed", "station", station.ID, "error", err)
		return domain.FaultUnknown
	}
	return fault
}

func (p *Predictor) predictFault(station domain.Station, c domain.Conditions) (string, error) {
	if p.classifier == nil {
		return "", errMissing("fault classifier")
	}
	x, err := p.features.ClassifierFeatures(station, p.clock.Now().Month(), c)
	if err != nil {
		return "", err
	}
	code, err := p.classifier.Predict(x)
	if err != nil {
		return "", fmt.Errorf("classifier: %w", err)
	}
	return p.features.DecodeFault(code)
}

// PredictRestoration returns expected restoration hours for a fault at the
// station, using the current hour. The result is within
// [MinRestorationHours, MaxRestorationHours] and rounded to one decimal.
func (p *Predictor) PredictRestoration(station domain.Station, fault string, c domain.Conditions) float64 {
	hours, err := p.predictRestoration(station, fault, c)
	if err != nil {
		p.metrics.Fallbacks.WithLabelValues("restoration_model").Inc()
		if !errors.Is(err, domain.ErrUnknownCategory) || fault != domain.FaultUnknown {
			p.logger.Warn("restoration prediction failed", "station", station.ID, "fault", fault, "error", err)
		}
		return NominalRestorationHours
	}
	return ClampHours(hours)
}

func (p *Predictor) predictRestoration(station domain.Station, fault string, c domain.Conditions) (float64, error) {
	if p.regressor == nil {
		return 0, errMissing("restoration model")
	}
	x, err := p.features.RegressorFeatures(station, fault, p.clock.Now().Hour(), c)
	if err != nil {
		return 0, err
	}
	hours, err := p.regressor.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("regressor: %w", err)
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, fmt.Errorf("regressor returned %v", hours)
	}
	return hours, nil
}

// ClampHours bounds hours to the trusted band and rounds to one decimal.
func ClampHours(hours float64) float64 {
	hours = math.Max(MinRestorationHours, math.Min(MaxRestorationHours, hours))
	return math.Round(hours*10) / 10
}
