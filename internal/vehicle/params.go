package vehicle

// Parameters is the configurable bidding threshold set a record is
// qualified against. All bounds are inclusive; MinRetailRating is an
// inclusive floor, the rest are inclusive caps.
type Parameters struct {
	MaxPrice          float64  `json:"maxPrice"`
	MaxAge            int      `json:"maxAge"`
	MaxMileage        int      `json:"maxMileage"`
	MinRetailRating   float64  `json:"minRetailRating"`
	MaxDaysToSell     int      `json:"maxDaysToSell"`
	MaxPreviousOwners int      `json:"maxPreviousOwners"`
	ServiceHistory    []string `json:"serviceHistory"`
}

// DefaultParameters returns the parameter set a fresh session starts with.
func DefaultParameters() Parameters {
	return Parameters{
		MaxPrice:          50000,
		MaxAge:            10,
		MaxMileage:        100000,
		MinRetailRating:   3,
		MaxDaysToSell:     30,
		MaxPreviousOwners: 2,
		ServiceHistory:    []string{"full", "part"},
	}
}

// AllowsServiceHistory reports whether tag is in the allowed set.
func (p Parameters) AllowsServiceHistory(tag string) bool {
	for _, allowed := range p.ServiceHistory {
		if allowed == tag {
			return true
		}
	}
	return false
}
