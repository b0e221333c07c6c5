package config

import "fmt"

// BoundingBox is the south-west / north-east corner pair used to scope a
// listing search to a city.
type BoundingBox struct {
	SWLat  float64
	SWLong float64
	NELat  float64
	NELong float64
}

// City is one entry of the registry.
type City struct {
	Name    string
	Country string
	Box     BoundingBox
}

// Registry is the fixed, ordered universe of cities a run operates over.
// It is never mutated after construction.
type Registry struct {
	cities []City
	index  map[string]int
}

// NewRegistry builds a registry preserving the given order. City names must be unique.
func NewRegistry(cities ...City) (*Registry, error) {
	r := &Registry{
		cities: make([]City, 0, len(cities)),
		index:  make(map[string]int, len(cities)),
	}
	for _, c := range cities {
		if c.Name == "" {
			return nil, fmt.Errorf("registry: city with empty name")
		}
		if _, dup := r.index[c.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate city %q", c.Name)
		}
		r.index[c.Name] = len(r.cities)
		r.cities = append(r.cities, c)
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error. Intended for static tables and tests.
func MustRegistry(cities ...City) *Registry {
	r, err := NewRegistry(cities...)
	if err != nil {
		panic(err)
	}
	return r
}

// Cities returns a copy of the registry entries in registration order.
func (r *Registry) Cities() []City {
	out := make([]City, len(r.cities))
	copy(out, r.cities)
	return out
}

// Names returns the city names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.cities))
	for i, c := range r.cities {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the registry entry for name.
func (r *Registry) Lookup(name string) (City, bool) {
	i, ok := r.index[name]
	if !ok {
		return City{}, false
	}
	return r.cities[i], true
}

// Contains reports whether name is a registered city.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Len returns the number of registered cities.
func (r *Registry) Len() int {
	return len(r.cities)
}

// DefaultRegistry returns the ten eurozone capitals the analysis was built for.
func DefaultRegistry() *Registry {
	return MustRegistry(
		City{Name: "Paris", Country: "France", Box: BoundingBox{48.815573, 2.224199, 48.902145, 2.469920}},
		City{Name: "Berlin", Country: "Germany", Box: BoundingBox{52.339784, 13.088309, 52.675454, 13.761161}},
		City{Name: "Madrid", Country: "Spain", Box: BoundingBox{40.312825, -3.88912, 40.643729, -3.561463}},
		City{Name: "Rome", Country: "Italy", Box: BoundingBox{41.799544, 12.248678, 42.020923, 12.691870}},
		City{Name: "Amsterdam", Country: "Netherlands", Box: BoundingBox{52.278174, 4.728098, 52.431157, 5.079207}},
		City{Name: "Vienna", Country: "Austria", Box: BoundingBox{48.166086, 16.179051, 48.323254, 16.577574}},
		City{Name: "Lisbon", Country: "Portugal", Box: BoundingBox{38.691399, -9.229064, 38.788765, -9.092600}},
		City{Name: "Brussels", Country: "Belgium", Box: BoundingBox{50.779517, 4.243715, 50.913706, 4.469936}},
		City{Name: "Athens", Country: "Greece", Box: BoundingBox{37.885082, 23.599058, 38.056439, 23.818654}},
		City{Name: "Dublin", Country: "Ireland", Box: BoundingBox{53.298439, -6.387438, 53.410082, -6.114448}},
	)
}
