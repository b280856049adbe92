package refdata

import "github.com/couchcryptid/grid-eta-service/internal/domain"

// DefaultStations is the built-in station table. Risk penalties come from the
// offline incident-density analysis and must match the values used in training.
func DefaultStations() []domain.Station {
	return []domain.Station{
		{
			ID:          "PLANT_01",
			Name:        "Korangi Grid Station",
			Area:        "Korangi",
			Location:    domain.Point{Lat: 24.831, Lng: 67.132},
			RiskPenalty: 0.21,
			RiskLabel:   "Extreme",
			Color:       "#dc3545",
		},
		{
			ID:          "PLANT_02",
			Name:        "Surjani Substation",
			Area:        "Surjani",
			Location:    domain.Point{Lat: 25.002, Lng: 67.062},
			RiskPenalty: 0.1585,
			RiskLabel:   "High",
			Color:       "#fd7e14",
		},
		{
			ID:          "PLANT_03",
			Name:        "Nazimabad Substation",
			Area:        "Nazimabad",
			Location:    domain.Point{Lat: 24.912, Lng: 67.042},
			RiskPenalty: 0.0349,
			RiskLabel:   "Medium",
			Color:       "#ffc107",
		},
		{
			ID:          "MAINT_01",
			Name:        "Clifton Maintenance Hub",
			Area:        "Clifton",
			Location:    domain.Point{Lat: 24.815, Lng: 67.028},
			RiskPenalty: -0.1087,
			RiskLabel:   "Secure",
			Color:       "#28a745",
		},
	}
}
