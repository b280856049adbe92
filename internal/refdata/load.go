package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
)

// Dataset file names inside the data directory.
const (
	ServiceCentersFile = "service_centers.csv"
	FaultHistoryFile   = "synthetic_faults.csv"
)

// Load reads reference data once at startup. Each dataset that fails to load
// is logged and left empty; dependent endpoints report it as unavailable.
// An empty stationsFile selects DefaultStations.
func Load(dataDir, stationsFile string, logger *slog.Logger) *Catalog {
	stations := DefaultStations()
	if stationsFile != "" {
		loaded, err := readCSV(stationsFile, parseStations)
		if err != nil {
			logger.Warn("could not load stations", "file", stationsFile, "error", err)
			stations = nil
		} else {
			stations = loaded
		}
	}

	centersPath := filepath.Join(dataDir, ServiceCentersFile)
	centers, err := readCSV(centersPath, parseCenters)
	if err != nil {
		logger.Warn("could not load service centers", "file", centersPath, "error", err)
	}

	var history *FaultHistory
	historyPath := filepath.Join(dataDir, FaultHistoryFile)
	records, err := readCSV(historyPath, parseFaults)
	if err != nil {
		logger.Warn("could not load fault history", "file", historyPath, "error", err)
	} else {
		history = NewFaultHistory(records)
	}

	logger.Info("reference data loaded",
		"stations", len(stations),
		"service_centers", len(centers),
		"fault_records", len(records),
	)
	return NewCatalog(stations, centers, history)
}

func readCSV[T any](path string, parse func(*csv.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	out, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(out) == 0 {
		return nil, errors.New("no rows")
	}
	return out, nil
}

// columns maps lower-cased header names to their index.
type columns map[string]int

func readHeader(r *csv.Reader, required ...string) (columns, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(columns, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func (c columns) str(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) float(row []string, name string) (float64, error) {
	s := c.str(row, name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not a number", name, s)
	}
	return v, nil
}

// floatOrZero mirrors the training job, which coerces bad numbers to zero.
func (c columns) floatOrZero(row []string, name string) float64 {
	v, err := c.float(row, name)
	if err != nil {
		return 0
	}
	return v
}

func eachRow(r *csv.Reader, fn func(line int, row []string) error) error {
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(line, row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func parseStations(r *csv.Reader) ([]domain.Station, error) {
	cols, err := readHeader(r, "id", "name", "lat", "lng", "risk_penalty", "risk_label")
	if err != nil {
		return nil, err
	}
	var out []domain.Station
	err = eachRow(r, func(_ int, row []string) error {
		lat, err := cols.float(row, "lat")
		if err != nil {
			return err
		}
		lng, err := cols.float(row, "lng")
		if err != nil {
			return err
		}
		risk, err := cols.float(row, "risk_penalty")
		if err != nil {
			return err
		}
		id := cols.str(row, "id")
		if id == "" {
			return errors.New("empty station id")
		}
		out = append(out, domain.Station{
			ID:          id,
			Name:        cols.str(row, "name"),
			Area:        cols.str(row, "area"),
			Location:    domain.Point{Lat: lat, Lng: lng},
			RiskPenalty: risk,
			RiskLabel:   cols.str(row, "risk_label"),
			Color:       cols.str(row, "color"),
		})
		return nil
	})
	return out, err
}

func parseCenters(r *csv.Reader) ([]domain.ServiceCenter, error) {
	cols, err := readHeader(r, "center name", "latitude", "longitude")
	if err != nil {
		return nil, err
	}
	var out []domain.ServiceCenter
	err = eachRow(r, func(_ int, row []string) error {
		lat, err := cols.float(row, "latitude")
		if err != nil {
			return err
		}
		lng, err := cols.float(row, "longitude")
		if err != nil {
			return err
		}
		out = append(out, domain.ServiceCenter{
			Name:     cols.str(row, "center name"),
			Type:     parseResourceType(cols.str(row, "type")),
			Location: domain.Point{Lat: lat, Lng: lng},
		})
		return nil
	})
	return out, err
}

// parseResourceType maps free-text center types onto the two known variants.
func parseResourceType(s string) domain.ResourceType {
	if strings.Contains(strings.ToLower(s), "maint") {
		return domain.ResourceMaintenanceHub
	}
	return domain.ResourceServiceCenter
}

func parseFaults(r *csv.Reader) ([]FaultRecord, error) {
	cols, err := readHeader(r, "main_work_center", "problem_code_text")
	if err != nil {
		return nil, err
	}
	var out []FaultRecord
	err = eachRow(r, func(_ int, row []string) error {
		risk := cols.str(row, "kunda_risk_factor")
		if risk == "Very Secure" {
			risk = "Secure"
		}
		out = append(out, FaultRecord{
			Notification:  cols.str(row, "notification"),
			StationID:     cols.str(row, "main_work_center"),
			Area:          cols.str(row, "area_name"),
			FaultType:     cols.str(row, "problem_code_text"),
			Status:        cols.str(row, "user_status"),
			RiskLabel:     risk,
			DurationHours: cols.floatOrZero(row, "malfunction_end"),
			MaxTemp:       cols.floatOrZero(row, "day_max_temp"),
			Wind:          cols.floatOrZero(row, "day_wind"),
		})
		return nil
	})
	return out, err
}
