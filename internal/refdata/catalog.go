package refdata

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
)

// Catalog is the read-only reference data shared by every request. It is
// never mutated after construction, so it is safe for concurrent use.
type Catalog struct {
	stations []domain.Station
	byID     map[string]int
	centers  []domain.ServiceCenter
	history  *FaultHistory
}

// NewCatalog builds a catalog. Station order is preserved for listings and
// nearest-station tie breaking. A nil history means fault history is unavailable.
func NewCatalog(stations []domain.Station, centers []domain.ServiceCenter, history *FaultHistory) *Catalog {
	c := &Catalog{
		stations: append([]domain.Station(nil), stations...),
		byID:     make(map[string]int, len(stations)),
		centers:  append([]domain.ServiceCenter(nil), centers...),
		history:  history,
	}
	for i, s := range c.stations {
		c.byID[s.ID] = i
	}
	return c
}

// Stations returns all stations in load order.
func (c *Catalog) Stations() []domain.Station {
	return append([]domain.Station(nil), c.stations...)
}

// StationIDs returns every station id in load order.
func (c *Catalog) StationIDs() []string {
	ids := make([]string, len(c.stations))
	for i, s := range c.stations {
		ids[i] = s.ID
	}
	return ids
}

// Station looks up a station by exact id.
func (c *Catalog) Station(id string) (domain.Station, error) {
	if len(c.stations) == 0 {
		return domain.Station{}, fmt.Errorf("stations: %w", domain.ErrReferenceDataUnavailable)
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Station{}, &domain.UnknownEntityError{Kind: "station", ID: id, Valid: c.StationIDs()}
	}
	return c.stations[i], nil
}

// NearestStation returns the station closest to p by great-circle distance.
func (c *Catalog) NearestStation(p domain.Point) (domain.Station, error) {
	if len(c.stations) == 0 {
		return domain.Station{}, fmt.Errorf("stations: %w", domain.ErrReferenceDataUnavailable)
	}
	best, bestDist := 0, math.Inf(1)
	for i, s := range c.stations {
		if d := domain.Distance(p, s.Location); d < bestDist {
			best, bestDist = i, d
		}
	}
	return c.stations[best], nil
}

// Centers returns all service centers in load order.
func (c *Catalog) Centers() []domain.ServiceCenter {
	return append([]domain.ServiceCenter(nil), c.centers...)
}

// Center looks up a service center by exact name.
func (c *Catalog) Center(name string) (domain.ServiceCenter, error) {
	if len(c.centers) == 0 {
		return domain.ServiceCenter{}, fmt.Errorf("service centers: %w", domain.ErrReferenceDataUnavailable)
	}
	names := make([]string, len(c.centers))
	for i, sc := range c.centers {
		if sc.Name == name {
			return sc, nil
		}
		names[i] = sc.Name
	}
	return domain.ServiceCenter{}, &domain.UnknownEntityError{Kind: "service center", ID: name, Valid: names}
}

// History returns the fault history, or ErrReferenceDataUnavailable.
func (c *Catalog) History() (*FaultHistory, error) {
	if c.history == nil {
		return nil, fmt.Errorf("fault history: %w", domain.ErrReferenceDataUnavailable)
	}
	return c.history, nil
}

// FaultCount returns the number of historical faults at a station, or 0 when
// history is unavailable.
func (c *Catalog) FaultCount(stationID string) int {
	if c.history == nil {
		return 0
	}
	return c.history.CountByStation(stationID)
}

// CheckReadiness reports whether the data the estimation endpoint needs loaded.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if len(c.stations) == 0 {
		return errors.New("station reference data not loaded")
	}
	if len(c.centers) == 0 {
		return errors.New("service center reference data not loaded")
	}
	return nil
}
