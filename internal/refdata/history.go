package refdata

import "sort"

// FaultRecord is one historical fault notification.
type FaultRecord struct {
	Notification  string  `json:"notification"`
	StationID     string  `json:"station_id"`
	Area          string  `json:"area"`
	FaultType     string  `json:"fault_type"`
	Status        string  `json:"status"`
	RiskLabel     string  `json:"risk_level"`
	DurationHours float64 `json:"duration_hours"`
	MaxTemp       float64 `json:"max_temp"`
	Wind          float64 `json:"wind"`
}

// FaultHistory is the immutable set of historical fault records.
type FaultHistory struct {
	records   []FaultRecord
	byStation map[string]int
}

// NewFaultHistory indexes records by station.
func NewFaultHistory(records []FaultRecord) *FaultHistory {
	h := &FaultHistory{
		records:   append([]FaultRecord(nil), records...),
		byStation: make(map[string]int),
	}
	for _, r := range h.records {
		h.byStation[r.StationID]++
	}
	return h
}

// Len is the number of records.
func (h *FaultHistory) Len() int { return len(h.records) }

// CountByStation returns the number of records for a station.
func (h *FaultHistory) CountByStation(id string) int { return h.byStation[id] }

// Summary is the distribution of historical faults.
type Summary struct {
	Total    int            `json:"total_records"`
	ByFault  map[string]int `json:"fault_distribution"`
	ByStatus map[string]int `json:"status_distribution"`
	ByArea   map[string]int `json:"area_distribution"`
}

// Summarize counts records by fault type, status, and area.
func (h *FaultHistory) Summarize() Summary {
	s := Summary{
		Total:    len(h.records),
		ByFault:  make(map[string]int),
		ByStatus: make(map[string]int),
		ByArea:   make(map[string]int),
	}
	for _, r := range h.records {
		s.ByFault[r.FaultType]++
		s.ByStatus[r.Status]++
		s.ByArea[r.Area]++
	}
	return s
}

// Recent returns up to n records in file order.
func (h *FaultHistory) Recent(n int) []FaultRecord {
	if n > len(h.records) {
		n = len(h.records)
	}
	return append([]FaultRecord(nil), h.records[:n]...)
}

// FaultTypes returns the distinct fault types, sorted.
func (h *FaultHistory) FaultTypes() []string {
	seen := make(map[string]struct{})
	for _, r := range h.records {
		seen[r.FaultType] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
