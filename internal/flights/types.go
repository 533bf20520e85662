package flights

import "sort"

type Airport struct {
	Code      string  `json:"-" yaml:"-"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude_deg" yaml:"latitude_deg"`
	Longitude float64 `json:"longitude_deg" yaml:"longitude_deg"`
}

// Airports is the directory of known airports keyed by IATA code.
type Airports map[string]Airport

// Codes returns the IATA codes in sorted order.
func (a Airports) Codes() []string {
	codes := make([]string, 0, len(a))
	for code := range a {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Routes is the nonstop route graph: source IATA code -> sorted, distinct destinations.
// A source is present only if it has at least one destination.
type Routes map[string][]string

// NewRoutes normalizes raw adjacency lists: destinations are de-duplicated and sorted,
// and sources left without destinations are dropped.
func NewRoutes(raw map[string][]string) Routes {
	r := make(Routes, len(raw))
	for src, dests := range raw {
		seen := make(map[string]struct{}, len(dests))
		uniq := make([]string, 0, len(dests))
		for _, d := range dests {
			if d == "" {
				continue
			}
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			uniq = append(uniq, d)
		}
		if len(uniq) == 0 {
			continue
		}
		sort.Strings(uniq)
		r[src] = uniq
	}
	return r
}

// Destinations returns the destinations reachable from code and whether code has any.
func (r Routes) Destinations(code string) ([]string, bool) {
	dests, ok := r[code]
	return dests, ok && len(dests) > 0
}

func (r Routes) HasRoutes(code string) bool {
	_, ok := r.Destinations(code)
	return ok
}

// HasEdge reports whether a nonstop route from -> to exists.
func (r Routes) HasEdge(from, to string) bool {
	dests, ok := r.Destinations(from)
	if !ok {
		return false
	}
	i := sort.SearchStrings(dests, to)
	return i < len(dests) && dests[i] == to
}

// Outcome classifies how a walk ended.
type Outcome int

const (
	ReturnedHome Outcome = iota
	DeadEnd
	NotFinished
)

func (o Outcome) String() string {
	switch o {
	case ReturnedHome:
		return "returned_home"
	case DeadEnd:
		return "dead_end"
	case NotFinished:
		return "not_finished"
	default:
		return "unknown"
	}
}

// Walk is the ordered sequence of airports visited by one random flight,
// starting at the start airport.
type Walk []string

func (w Walk) Start() string {
	if len(w) == 0 {
		return ""
	}
	return w[0]
}

func (w Walk) Last() string {
	if len(w) == 0 {
		return ""
	}
	return w[len(w)-1]
}

// Hops is the number of flights taken.
func (w Walk) Hops() int {
	if len(w) == 0 {
		return 0
	}
	return len(w) - 1
}

// Outcome classifies the walk against the hop bound it was produced with.
// A walk that ends at its start returned home, including a return on the last
// budgeted hop. Otherwise a walk shorter than maxHops+1 hit a dead end and
// one that reached maxHops+1 did not finish.
func (w Walk) Outcome(maxHops int) Outcome {
	if len(w) >= 2 && w.Last() == w.Start() {
		return ReturnedHome
	}
	if len(w) < maxHops+1 {
		return DeadEnd
	}
	return NotFinished
}
