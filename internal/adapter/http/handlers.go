package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/estimate"
	"github.com/couchcryptid/grid-eta-service/internal/refdata"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	recentFaults    = 10
	dashboardFaults = 25

	// Marker color for faults at stations missing from the catalog.
	neutralColor = "#6c757d"
)

type stationSummary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Area        string       `json:"area"`
	RiskLabel   string       `json:"risk_level"`
	RiskPenalty float64      `json:"risk_penalty"`
	Location    domain.Point `json:"coordinates"`
	Color       string       `json:"color,omitempty"`
}

type stationListing struct {
	stationSummary
	FaultCount int `json:"fault_count"`
}

type conditionsResponse struct {
	Temperature float64   `json:"temperature"`
	WindSpeed   float64   `json:"wind_speed"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Source      string    `json:"source"`
	ObservedAt  time.Time `json:"observed_at"`
}

type resourceResponse struct {
	Name          string              `json:"name"`
	Type          domain.ResourceType `json:"type"`
	Location      domain.Point        `json:"coordinates"`
	DistanceKm    float64             `json:"distance_km"`
	BaseMinutes   int                 `json:"base_minutes"`
	TravelMinutes int                 `json:"travel_minutes"`
	TrafficFactor float64             `json:"traffic_factor"`
	Source        string              `json:"source"`
}

type estimateResponse struct {
	ID          string                 `json:"id"`
	Station     stationSummary         `json:"station"`
	Location    domain.Point           `json:"location"`
	Conditions  conditionsResponse     `json:"conditions"`
	Prediction  domain.FaultPrediction `json:"prediction"`
	Resource    resourceResponse       `json:"resource"`
	TotalETA    domain.ETA             `json:"total_eta"`
	GeneratedAt time.Time              `json:"generated_at"`
}

type coverageResponse struct {
	CenterName string `json:"center_name"`
	domain.Coverage
}

type statsResponse struct {
	refdata.Summary
	Recent []refdata.FaultRecord `json:"recent"`
}

type statusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	domain.StatusDisplay
}

type dashboardSummary struct {
	TotalFaults int            `json:"total_faults"`
	Statuses    []statusCount  `json:"statuses"`
	ByArea      map[string]int `json:"by_area"`
	ByFaultType map[string]int `json:"by_fault_type"`
}

type faultWeather struct {
	Temp float64 `json:"temp"`
	Wind float64 `json:"wind"`
}

type dashboardFault struct {
	ID            string               `json:"id"`
	StationID     string               `json:"station_id"`
	StationName   string               `json:"station_name"`
	Area          string               `json:"area"`
	FaultType     string               `json:"fault_type"`
	FaultIcon     string               `json:"fault_icon"`
	Status        string               `json:"status"`
	StatusInfo    domain.StatusDisplay `json:"status_info"`
	RiskLabel     string               `json:"risk_level"`
	Duration      string               `json:"duration"`
	DurationHours *float64             `json:"duration_hours"`
	Weather       faultWeather         `json:"weather"`
	Color         string               `json:"color"`
}

type dashboardResponse struct {
	Summary      dashboardSummary `json:"summary"`
	RecentFaults []dashboardFault `json:"recent_faults"`
	MapMarkers   []stationListing `json:"map_markers"`
}

type statusResponse struct {
	Models         map[string]bool `json:"models"`
	Stations       int             `json:"stations"`
	ServiceCenters int             `json:"service_centers"`
	FaultRecords   int             `json:"fault_records"`
}

type errorResponse struct {
	Error string   `json:"error"`
	Valid []string `json:"valid,omitempty"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, err := parseEstimateRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.api.Estimator.Estimate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newEstimateResponse(res))
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("center")
	if name == "" {
		s.writeError(w, fmt.Errorf("%w: center is required", domain.ErrInvalidInput))
		return
	}
	minutes, err := strconv.Atoi(q.Get("minutes"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: minutes must be an integer", domain.ErrInvalidInput))
		return
	}
	cov, err := s.api.Estimator.CoverageForCenter(r.Context(), name, minutes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cov.RadiusKm = round(cov.RadiusKm, 2)
	sharedobs.WriteJSON(w, http.StatusOK, coverageResponse{CenterName: name, Coverage: cov})
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	stations := s.api.Catalog.Stations()
	if len(stations) == 0 {
		s.writeError(w, fmt.Errorf("stations: %w", domain.ErrReferenceDataUnavailable))
		return
	}
	out := make([]stationListing, len(stations))
	for i, st := range stations {
		out[i] = stationListing{
			stationSummary: newStationSummary(st),
			FaultCount:     s.api.Catalog.FaultCount(st.ID),
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	history, err := s.api.Catalog.History()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, statsResponse{
		Summary: history.Summarize(),
		Recent:  history.Recent(recentFaults),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	history, err := s.api.Catalog.History()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sum := history.Summarize()
	stations := s.api.Catalog.Stations()

	resp := dashboardResponse{
		Summary: dashboardSummary{
			TotalFaults: sum.Total,
			Statuses:    statusCounts(sum.ByStatus),
			ByArea:      sum.ByArea,
			ByFaultType: sum.ByFault,
		},
		RecentFaults: make([]dashboardFault, 0, dashboardFaults),
		MapMarkers:   make([]stationListing, len(stations)),
	}

	byID := make(map[string]domain.Station, len(stations))
	for i, st := range stations {
		byID[st.ID] = st
		resp.MapMarkers[i] = stationListing{
			stationSummary: newStationSummary(st),
			FaultCount:     s.api.Catalog.FaultCount(st.ID),
		}
	}
	for _, rec := range history.Recent(dashboardFaults) {
		resp.RecentFaults = append(resp.RecentFaults, newDashboardFault(rec, byID))
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := statusResponse{
		Models:         s.api.Artifacts.Loaded(),
		Stations:       len(s.api.Catalog.Stations()),
		ServiceCenters: len(s.api.Catalog.Centers()),
	}
	if history, err := s.api.Catalog.History(); err == nil {
		status.FaultRecords = history.Len()
	}
	sharedobs.WriteJSON(w, http.StatusOK, status)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var unknown *domain.UnknownEntityError
	switch {
	case errors.As(err, &unknown):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Valid: unknown.Valid})
	case errors.Is(err, domain.ErrInvalidInput):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrReferenceDataUnavailable):
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// statusCounts orders statuses by descending count, then by name.
func statusCounts(byStatus map[string]int) []statusCount {
	out := make([]statusCount, 0, len(byStatus))
	for status, n := range byStatus {
		out = append(out, statusCount{Status: status, Count: n, StatusDisplay: domain.StatusInfo(status)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

func newDashboardFault(rec refdata.FaultRecord, stations map[string]domain.Station) dashboardFault {
	f := dashboardFault{
		ID:          rec.Notification,
		StationID:   rec.StationID,
		StationName: rec.StationID,
		Area:        rec.Area,
		FaultType:   rec.FaultType,
		FaultIcon:   domain.FaultIcon(rec.FaultType),
		Status:      rec.Status,
		StatusInfo:  domain.StatusInfo(rec.Status),
		RiskLabel:   rec.RiskLabel,
		Duration:    domain.FormatDuration(rec.DurationHours),
		Weather:     faultWeather{Temp: round(rec.MaxTemp, 1), Wind: round(rec.Wind, 1)},
		Color:       neutralColor,
	}
	if rec.DurationHours > 0 {
		h := round(rec.DurationHours, 1)
		f.DurationHours = &h
	}
	if st, ok := stations[rec.StationID]; ok {
		f.StationName = st.Name
		if st.Color != "" {
			f.Color = st.Color
		}
	}
	return f
}

func parseEstimateRequest(r *http.Request) (estimate.Request, error) {
	q := r.URL.Query()
	req := estimate.Request{StationID: q.Get("station")}

	lat, err := optionalFloat(q.Get("lat"), "lat")
	if err != nil {
		return req, err
	}
	lng, err := optionalFloat(q.Get("lng"), "lng")
	if err != nil {
		return req, err
	}
	if (lat == nil) != (lng == nil) {
		return req, fmt.Errorf("%w: lat and lng must be given together", domain.ErrInvalidInput)
	}
	if lat != nil {
		req.Location = &domain.Point{Lat: *lat, Lng: *lng}
	}

	if req.Temperature, err = optionalFloat(q.Get("temp"), "temp"); err != nil {
		return req, err
	}
	if req.WindSpeed, err = optionalFloat(q.Get("wind"), "wind"); err != nil {
		return req, err
	}
	return req, nil
}

func optionalFloat(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, name)
	}
	return &v, nil
}

func newStationSummary(st domain.Station) stationSummary {
	return stationSummary{
		ID:          st.ID,
		Name:        st.Name,
		Area:        st.Area,
		RiskLabel:   st.RiskLabel,
		RiskPenalty: st.RiskPenalty,
		Location:    st.Location,
		Color:       st.Color,
	}
}

func newEstimateResponse(res domain.EstimationResult) estimateResponse {
	route := res.Resource.Route
	return estimateResponse{
		ID:       res.ID,
		Station:  newStationSummary(res.Station),
		Location: res.Location,
		Conditions: conditionsResponse{
			Temperature: res.Conditions.Temperature,
			WindSpeed:   res.Conditions.WindSpeed,
			Humidity:    res.Conditions.Humidity,
			Source:      res.Conditions.Source,
			ObservedAt:  res.Conditions.ObservedAt,
		},
		Prediction: res.Prediction,
		Resource: resourceResponse{
			Name:          res.Resource.Center.Name,
			Type:          res.Resource.Center.Type,
			Location:      res.Resource.Center.Location,
			DistanceKm:    round(route.DistanceKm, 2),
			BaseMinutes:   int(math.Round(route.BaseMinutes)),
			TravelMinutes: int(math.Round(route.AdjustedMinutes)),
			TrafficFactor: res.Resource.TrafficFactor,
			Source:        route.Source,
		},
		TotalETA:    domain.ETA{Hours: round(res.TotalETA.Hours, 2), Formatted: res.TotalETA.Formatted},
		GeneratedAt: res.GeneratedAt,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
