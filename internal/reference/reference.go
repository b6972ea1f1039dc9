package reference

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Airport is an immutable airport reference record.
type Airport struct {
	Code string `yaml:"code" json:"code"` // IATA code, unique
	City string `yaml:"city" json:"city"`
	Name string `yaml:"name" json:"name"`
}

// Key returns the airport code.
func (a Airport) Key() string {
	return a.Code
}

// Display returns the canonical "<code> - <city>" string shown once an
// airport has been picked.
func (a Airport) Display() string {
	return a.Code + " - " + a.City
}

// Detail returns the airport name for secondary display.
func (a Airport) Detail() string {
	return a.Name
}

// Matches reports whether the lowercased query is a substring of the
// airport's code, name or city.
func (a Airport) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(a.Name), q) ||
		strings.Contains(strings.ToLower(a.City), q) ||
		strings.Contains(strings.ToLower(a.Code), q)
}

// Airline is an immutable airline reference record.
type Airline struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Key returns the airline code.
func (a Airline) Key() string {
	return a.Code
}

// Detail returns the airline code for secondary display.
func (a Airline) Detail() string {
	return a.Code
}

// Display returns the airline name.
func (a Airline) Display() string {
	return a.Name
}

// Matches reports whether the lowercased query is a substring of the
// airline's code or name.
func (a Airline) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(a.Name), q) ||
		strings.Contains(strings.ToLower(a.Code), q)
}

// Catalog holds the reference lists. A Catalog is never mutated after
// construction and may be shared between goroutines without locking.
type Catalog struct {
	airports []Airport
	airlines []Airline
	byCode   map[string]int
	carriers map[string]int
}

// NewCatalog builds a catalog from the given lists. The slices are copied.
func NewCatalog(airports []Airport, airlines []Airline) (*Catalog, error) {
	c := &Catalog{
		airports: append([]Airport(nil), airports...),
		airlines: append([]Airline(nil), airlines...),
		byCode:   make(map[string]int, len(airports)),
		carriers: make(map[string]int, len(airlines)),
	}
	for i, a := range c.airports {
		code := strings.ToUpper(a.Code)
		if code == "" {
			return nil, fmt.Errorf("airport %d has no code", i)
		}
		if _, dup := c.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate airport code %q", a.Code)
		}
		c.byCode[code] = i
	}
	for i, a := range c.airlines {
		code := strings.ToUpper(a.Code)
		if code == "" {
			return nil, fmt.Errorf("airline %d has no code", i)
		}
		if _, dup := c.carriers[code]; dup {
			return nil, fmt.Errorf("duplicate airline code %q", a.Code)
		}
		c.carriers[code] = i
	}
	return c, nil
}

// Airports returns the airport list in reference order.
// Callers must not modify the returned slice.
func (c *Catalog) Airports() []Airport {
	return c.airports
}

// Airlines returns the airline list in reference order.
// Callers must not modify the returned slice.
func (c *Catalog) Airlines() []Airline {
	return c.airlines
}

// AirportByCode looks up an airport by code, case-insensitively.
func (c *Catalog) AirportByCode(code string) (Airport, bool) {
	i, ok := c.byCode[strings.ToUpper(code)]
	if !ok {
		return Airport{}, false
	}
	return c.airports[i], true
}

// AirlineByCode looks up an airline by code, case-insensitively.
func (c *Catalog) AirlineByCode(code string) (Airline, bool) {
	i, ok := c.carriers[strings.ToUpper(code)]
	if !ok {
		return Airline{}, false
	}
	return c.airlines[i], true
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
	defaultErr     error
)

// Load parses the embedded reference lists. The result is cached.
func Load() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = loadEmbedded()
	})
	return defaultCatalog, defaultErr
}

// Default returns the embedded catalog and panics if it cannot be parsed.
func Default() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func loadEmbedded() (*Catalog, error) {
	var airports []Airport
	if err := decode("data/airports.yaml", &airports); err != nil {
		return nil, err
	}
	var airlines []Airline
	if err := decode("data/airlines.yaml", &airlines); err != nil {
		return nil, err
	}
	return NewCatalog(airports, airlines)
}

func decode(name string, out interface{}) error {
	data, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
