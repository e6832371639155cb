package compliance

import (
	"strings"

	"github.com/tradewind/tariffflow/internal/model"
)

// AdditionalDuty is one special-case duty keyed by chapter, origin and
// destination. Origin may be the wildcard "*".
type AdditionalDuty struct {
	Name        string
	Chapter     string
	Origin      string
	Destination string
	Rate        float64
}

// AdValoremFee is a destination-specific customs fee computed from shipment
// value. Min and Max clamp the computed amount; zero means no bound.
type AdValoremFee struct {
	Name        string
	Description string
	Rate        float64
	Min         float64
	Max         float64
}

// DutySchedule holds the duty-rate and fee lookup tables. All entries are
// illustrative seed data, replaceable without touching the calculation.
type DutySchedule struct {
	// BaseRates maps destination country to chapter to ad valorem rate (%).
	BaseRates map[string]map[string]float64
	// AdditionalDuties lists special-case duties (antidumping, safeguard).
	AdditionalDuties []AdditionalDuty
	// Fees maps destination country to its value-based customs fees.
	Fees map[string][]AdValoremFee
}

// Calculate returns the total estimated duty rate for the shipment and any
// destination fees. Fee amounts are computed only when a monetary value is
// supplied.
func (s DutySchedule) Calculate(check model.ComplianceCheck) (float64, []model.AdditionalFee) {
	dest := strings.ToUpper(check.DestinationCountry)
	chapter := check.HSCode.Chapter()

	rate := s.BaseRates[dest][chapter]
	for _, extra := range s.AdditionalDuties {
		if extra.Chapter != chapter {
			continue
		}
		if extra.Destination != dest {
			continue
		}
		if extra.Origin != model.WildcardCountry && !strings.EqualFold(extra.Origin, check.OriginCountry) {
			continue
		}
		rate += extra.Rate
	}

	var fees []model.AdditionalFee
	if check.ProductValue != nil {
		value := *check.ProductValue
		for _, fee := range s.Fees[dest] {
			amount := value * fee.Rate
			if fee.Min > 0 && amount < fee.Min {
				amount = fee.Min
			}
			if fee.Max > 0 && amount > fee.Max {
				amount = fee.Max
			}
			fees = append(fees, model.AdditionalFee{
				Name:        fee.Name,
				Description: fee.Description,
				Amount:      amount,
			})
		}
	}

	return rate, fees
}

// EstimatedDutyAmount converts a total rate into a currency amount for the
// given shipment value.
func EstimatedDutyAmount(rate float64, value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value * rate / 100
}

// DefaultDutySchedule returns the seed duty and fee tables.
func DefaultDutySchedule() DutySchedule {
	return DutySchedule{
		BaseRates: map[string]map[string]float64{
			"US": {
				"22": 1.2,
				"61": 16.5,
				"62": 15.8,
				"64": 12.0,
				"72": 0.0,
				"73": 3.1,
				"84": 1.9,
				"85": 2.6,
				"87": 2.5,
				"90": 2.2,
				"93": 2.0,
			},
			"CA": {
				"61": 18.0,
				"62": 17.5,
				"84": 2.0,
				"85": 2.5,
				"87": 6.1,
			},
			"DE": {
				"61": 12.0,
				"62": 12.0,
				"84": 1.7,
				"85": 3.7,
				"87": 10.0,
			},
			"GB": {
				"61": 12.0,
				"84": 2.0,
				"85": 3.5,
				"87": 10.0,
			},
			"CN": {
				"22": 14.0,
				"84": 8.0,
				"85": 10.0,
				"87": 15.0,
			},
		},
		AdditionalDuties: []AdditionalDuty{
			{Name: "Section 301 additional duty", Chapter: "85", Origin: "CN", Destination: "US", Rate: 25.0},
			{Name: "Antidumping duty on steel articles", Chapter: "73", Origin: "CN", Destination: "US", Rate: 25.0},
			{Name: "Section 232 steel safeguard", Chapter: "72", Origin: model.WildcardCountry, Destination: "US", Rate: 25.0},
			{Name: "Section 232 aluminum safeguard", Chapter: "76", Origin: model.WildcardCountry, Destination: "US", Rate: 10.0},
		},
		Fees: map[string][]AdValoremFee{
			"US": {
				{
					Name:        "Merchandise Processing Fee",
					Description: "US CBP merchandise processing fee (ad valorem, clamped)",
					Rate:        0.003464,
					Min:         27.23,
					Max:         528.33,
				},
				{
					Name:        "Harbor Maintenance Fee",
					Description: "US harbor maintenance fee (ad valorem)",
					Rate:        0.00125,
				},
			},
		},
	}
}
