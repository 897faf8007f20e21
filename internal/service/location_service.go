package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kinhai-collab/Mira-sub001/internal/dto"
)

type ILocationService interface {
	// ReverseGeocode resolves browser-supplied coordinates to a place name.
	ReverseGeocode(ctx context.Context, lat, lon float64) (*dto.GeocodeResponse, error)

	// LocateByIP is the fallback when the browser denies geolocation.
	LocateByIP(ctx context.Context, ip string) (*dto.GeocodeResponse, error)

	Weather(ctx context.Context, lat, lon float64) (*dto.WeatherResponse, error)
}

type locationService struct {
	geoapifyKey string
	client      *http.Client
	cache       *cache.Cache
}

func NewLocationService(geoapifyKey string) ILocationService {
	return &locationService{
		geoapifyKey: geoapifyKey,
		client:      &http.Client{Timeout: 10 * time.Second},
		cache:       cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (s *locationService) fetch(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (s *locationService) ReverseGeocode(ctx context.Context, lat, lon float64) (*dto.GeocodeResponse, error) {
	cacheKey := fmt.Sprintf("geocode:%.3f:%.3f", lat, lon)
	if val, ok := s.cache.Get(cacheKey); ok {
		return val.(*dto.GeocodeResponse), nil
	}

	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%f", lat))
	params.Add("lon", fmt.Sprintf("%f", lon))
	params.Add("apiKey", s.geoapifyKey)
	params.Add("limit", "1")

	var result struct {
		Features []struct {
			Properties struct {
				City    string `json:"city"`
				State   string `json:"state"`
				Country string `json:"country"`
			} `json:"properties"`
		} `json:"features"`
	}
	reqURL := "https://api.geoapify.com/v1/geocode/reverse?" + params.Encode()
	if err := s.fetch(ctx, reqURL, &result); err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if len(result.Features) == 0 {
		return nil, fmt.Errorf("reverse geocode: no match for %.3f,%.3f", lat, lon)
	}

	props := result.Features[0].Properties
	res := &dto.GeocodeResponse{
		City:    props.City,
		State:   props.State,
		Country: props.Country,
		Lat:     lat,
		Lon:     lon,
		Source:  "gps",
	}
	s.cache.Set(cacheKey, res, cache.DefaultExpiration)
	return res, nil
}

func (s *locationService) LocateByIP(ctx context.Context, ip string) (*dto.GeocodeResponse, error) {
	cacheKey := "iploc:" + ip
	if val, ok := s.cache.Get(cacheKey); ok {
		return val.(*dto.GeocodeResponse), nil
	}

	var result struct {
		City        string  `json:"city"`
		Region      string  `json:"region"`
		CountryName string  `json:"country_name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	}
	if err := s.fetch(ctx, fmt.Sprintf("https://ipapi.co/%s/json/", ip), &result); err != nil {
		return nil, fmt.Errorf("ip geolocation: %w", err)
	}

	res := &dto.GeocodeResponse{
		City:    result.City,
		State:   result.Region,
		Country: result.CountryName,
		Lat:     result.Latitude,
		Lon:     result.Longitude,
		Source:  "ip",
	}
	s.cache.Set(cacheKey, res, cache.DefaultExpiration)
	return res, nil
}

// weatherLabels maps WMO weather codes to speakable summaries.
var weatherLabels = map[int]string{
	0:  "clear skies",
	1:  "mostly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "foggy",
	51: "light drizzle",
	61: "light rain",
	63: "rain",
	65: "heavy rain",
	71: "light snow",
	73: "snow",
	75: "heavy snow",
	80: "rain showers",
	95: "thunderstorms",
}

func (s *locationService) Weather(ctx context.Context, lat, lon float64) (*dto.WeatherResponse, error) {
	cacheKey := fmt.Sprintf("weather:%.2f:%.2f", lat, lon)
	if val, ok := s.cache.Get(cacheKey); ok {
		return val.(*dto.WeatherResponse), nil
	}

	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%f", lat))
	params.Add("longitude", fmt.Sprintf("%f", lon))
	params.Add("current_weather", "true")

	var result struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	reqURL := "https://api.open-meteo.com/v1/forecast?" + params.Encode()
	if err := s.fetch(ctx, reqURL, &result); err != nil {
		return nil, fmt.Errorf("weather lookup: %w", err)
	}

	label, ok := weatherLabels[result.CurrentWeather.WeatherCode]
	if !ok {
		label = "mixed conditions"
	}

	res := &dto.WeatherResponse{
		Summary:     fmt.Sprintf("It's %.0f degrees with %s", result.CurrentWeather.Temperature, label),
		TempC:       result.CurrentWeather.Temperature,
		WindKph:     result.CurrentWeather.WindSpeed,
		WeatherCode: result.CurrentWeather.WeatherCode,
	}
	s.cache.Set(cacheKey, res, 15*time.Minute)
	return res, nil
}
