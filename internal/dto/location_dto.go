package dto

type GeocodeResponse struct {
	City    string  `json:"city"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Source  string  `json:"source"` // "gps" | "ip"
}

type WeatherResponse struct {
	Summary     string  `json:"summary"`
	TempC       float64 `json:"temp_c"`
	WindKph     float64 `json:"wind_kph"`
	WeatherCode int     `json:"weather_code"`
}
