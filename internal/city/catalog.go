package city

import (
	"sort"
	"strings"

	"weatherassistant/internal/common"
)

// City is one selectable place with known coordinates.
type City struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const maxSearchResults = 50

// catalog is the built-in list of selectable cities.
var catalog = []City{
	{Name: "Adana", Country: "Türkiye", Latitude: 36.9914, Longitude: 35.3308},
	{Name: "Ankara", Country: "Türkiye", Latitude: 39.9334, Longitude: 32.8597},
	{Name: "Antalya", Country: "Türkiye", Latitude: 36.8841, Longitude: 30.7056},
	{Name: "Bursa", Country: "Türkiye", Latitude: 40.1826, Longitude: 29.0665},
	{Name: "Denizli", Country: "Türkiye", Latitude: 37.7765, Longitude: 29.0864},
	{Name: "Diyarbakır", Country: "Türkiye", Latitude: 37.9144, Longitude: 40.2306},
	{Name: "Erzurum", Country: "Türkiye", Latitude: 39.9042, Longitude: 41.2679},
	{Name: "Eskişehir", Country: "Türkiye", Latitude: 39.7767, Longitude: 30.5206},
	{Name: "Gaziantep", Country: "Türkiye", Latitude: 37.0662, Longitude: 37.3833},
	{Name: "İstanbul", Country: "Türkiye", Latitude: 41.0082, Longitude: 28.9784},
	{Name: "İzmir", Country: "Türkiye", Latitude: 38.4237, Longitude: 27.1428},
	{Name: "Kayseri", Country: "Türkiye", Latitude: 38.7312, Longitude: 35.4787},
	{Name: "Kocaeli", Country: "Türkiye", Latitude: 40.8533, Longitude: 29.8814},
	{Name: "Konya", Country: "Türkiye", Latitude: 37.8746, Longitude: 32.4932},
	{Name: "Mersin", Country: "Türkiye", Latitude: 36.8000, Longitude: 34.6333},
	{Name: "Samsun", Country: "Türkiye", Latitude: 41.2867, Longitude: 36.3300},
	{Name: "Şanlıurfa", Country: "Türkiye", Latitude: 37.1674, Longitude: 38.7955},
	{Name: "Trabzon", Country: "Türkiye", Latitude: 41.0015, Longitude: 39.7178},
	{Name: "Van", Country: "Türkiye", Latitude: 38.4891, Longitude: 43.4089},

	{Name: "New York", Country: "United States", Latitude: 40.7128, Longitude: -74.0060},
	{Name: "Los Angeles", Country: "United States", Latitude: 34.0522, Longitude: -118.2437},
	{Name: "Chicago", Country: "United States", Latitude: 41.8781, Longitude: -87.6298},
	{Name: "San Francisco", Country: "United States", Latitude: 37.7749, Longitude: -122.4194},

	{Name: "London", Country: "United Kingdom", Latitude: 51.5074, Longitude: -0.1278},
	{Name: "Paris", Country: "France", Latitude: 48.8566, Longitude: 2.3522},
	{Name: "Berlin", Country: "Germany", Latitude: 52.5200, Longitude: 13.4050},
	{Name: "Rome", Country: "Italy", Latitude: 41.9028, Longitude: 12.4964},
	{Name: "Madrid", Country: "Spain", Latitude: 40.4168, Longitude: -3.7038},
	{Name: "Amsterdam", Country: "Netherlands", Latitude: 52.3676, Longitude: 4.9041},

	{Name: "Tokyo", Country: "Japan", Latitude: 35.6762, Longitude: 139.6503},
	{Name: "Seoul", Country: "South Korea", Latitude: 37.5665, Longitude: 126.9780},
	{Name: "Dubai", Country: "United Arab Emirates", Latitude: 25.2048, Longitude: 55.2708},
	{Name: "Singapore", Country: "Singapore", Latitude: 1.3521, Longitude: 103.8198},

	{Name: "Sydney", Country: "Australia", Latitude: -33.8688, Longitude: 151.2093},
	{Name: "Toronto", Country: "Canada", Latitude: 43.6532, Longitude: -79.3832},
	{Name: "Mexico City", Country: "Mexico", Latitude: 19.4326, Longitude: -99.1332},
	{Name: "São Paulo", Country: "Brazil", Latitude: -23.5505, Longitude: -46.6333},
}

// Countries returns every country in the catalog, sorted.
func Countries() []string {
	seen := make(map[string]struct{})
	for _, c := range catalog {
		seen[c.Country] = struct{}{}
	}

	countries := make([]string, 0, len(seen))
	for country := range seen {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	return countries
}

// ByCountry returns the catalog cities of one country, sorted by name.
func ByCountry(country string) []City {
	var cities []City
	for _, c := range catalog {
		if c.Country == country {
			cities = append(cities, c)
		}
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities
}

// GroupedByCountry returns the whole catalog keyed by country, each group
// sorted by name.
func GroupedByCountry() map[string][]City {
	grouped := make(map[string][]City)
	for _, c := range catalog {
		grouped[c.Country] = append(grouped[c.Country], c)
	}
	for country := range grouped {
		cities := grouped[country]
		sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
		grouped[country] = cities
	}
	return grouped
}

// Search matches cities by name or country substring, case-insensitively.
func Search(query string) []City {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []City
	for _, c := range catalog {
		if common.ContainsAny(strings.ToLower(c.Name), q) ||
			common.ContainsAny(strings.ToLower(c.Country), q) {
			matches = append(matches, c)
			if len(matches) >= maxSearchResults {
				break
			}
		}
	}
	return matches
}

// Find looks up a catalog city by exact name; country narrows the match when
// non-empty.
func Find(name, country string) (City, bool) {
	for _, c := range catalog {
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		if country != "" && !strings.EqualFold(c.Country, country) {
			continue
		}
		return c, true
	}
	return City{}, false
}
