package weather

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Features are the raw observation inputs the prediction model scores.
type Features struct {
	Temp      float64 `json:"temp"`
	Humidity  float64 `json:"humidity"`
	WindSpeed float64 `json:"wind_speed"`
	Pressure  float64 `json:"pressure"`
	Clouds    float64 `json:"clouds"`
	UVIndex   float64 `json:"uv_index"`
}

// Prediction is the model output: per-label states, probabilities and
// confidence buckets, plus the dominant label.
type Prediction struct {
	States        map[string]bool    `json:"states"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidences   map[string]string  `json:"confidences"`
	Label         string             `json:"label"`
	Probability   float64            `json:"proba"`
}

// Recommendation is a single actionable hint derived from the prediction.
type Recommendation struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Active  bool   `json:"active"`
}

// Meta describes where the reading came from and how the API resolved it.
type Meta struct {
	Source          string  `json:"source"`
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	LocationName    string  `json:"location_name,omitempty"`
	LocationRegion  string  `json:"location_region,omitempty"`
	LocationCountry string  `json:"location_country,omitempty"`
	LocalTime       string  `json:"local_time,omitempty"`
	Condition       string  `json:"condition,omitempty"`
}

// Report is the full prediction API response for one location: the scored
// features, the prediction, a human-readable summary line and
// recommendations.
type Report struct {
	Success         bool             `json:"success"`
	Features        Features         `json:"features"`
	Prediction      Prediction       `json:"prediction"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Meta            Meta             `json:"meta"`
}
