// Copyright (c) 2025 BVK Chaitanya

package market

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Region is the marketplace location code where the hashpower is rented.
type Region int

// Algorithm is the marketplace code for a mining algorithm.
type Algorithm int

const (
	RegionEU  Region = 0
	RegionUSA Region = 1
)

const (
	GrinCuckaroo29 Algorithm = 38
	GrinCuckaroo31 Algorithm = 39
)

var regionNames = map[Region]string{
	RegionEU:  "EU",
	RegionUSA: "US",
}

var algorithmNames = map[Algorithm]string{
	GrinCuckaroo29: "GrinCuckaroo29",
	GrinCuckaroo31: "GrinCuckaroo31",
}

// Regions returns all known regions in ascending code order.
func Regions() []Region {
	var vs []Region
	for r := range regionNames {
		vs = append(vs, r)
	}
	slices.Sort(vs)
	return vs
}

// Algorithms returns all known algorithms in ascending code order.
func Algorithms() []Algorithm {
	var vs []Algorithm
	for a := range algorithmNames {
		vs = append(vs, a)
	}
	slices.Sort(vs)
	return vs
}

func (r Region) IsValid() bool {
	_, ok := regionNames[r]
	return ok
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("region-%d", int(r))
}

func (a Algorithm) IsValid() bool {
	_, ok := algorithmNames[a]
	return ok
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algo-%d", int(a))
}

// ParseRegion returns the region for a name or a numeric code. Names are
// matched case-insensitively.
func ParseRegion(s string) (Region, error) {
	for r, name := range regionNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	if v, err := strconv.Atoi(s); err == nil {
		if r := Region(v); r.IsValid() {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown region %q: %w", s, os.ErrInvalid)
}

// Set implements flag.Value.
func (r *Region) Set(s string) error {
	v, err := ParseRegion(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseAlgorithm returns the algorithm for a name or a numeric code. Names are
// matched case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if strings.EqualFold(name, s) {
			return a, nil
		}
	}
	if v, err := strconv.Atoi(s); err == nil {
		if a := Algorithm(v); a.IsValid() {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm %q: %w", s, os.ErrInvalid)
}

// Set implements flag.Value.
func (a *Algorithm) Set(s string) error {
	v, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Segment identifies one independent market for hashpower rental. Segment
// values are comparable and are used as map keys.
type Segment struct {
	Region    Region
	Algorithm Algorithm
}

func (s Segment) String() string {
	return s.Region.String() + "/" + s.Algorithm.String()
}

func (s Segment) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Check returns a non-nil error if the region or algorithm is not known.
func (s Segment) Check() error {
	if !s.Region.IsValid() {
		return fmt.Errorf("segment %s has unknown region: %w", s, os.ErrInvalid)
	}
	if !s.Algorithm.IsValid() {
		return fmt.Errorf("segment %s has unknown algorithm: %w", s, os.ErrInvalid)
	}
	return nil
}

// AllSegments returns the cross product of the input regions and algorithms
// in a stable order; regions vary slowest.
func AllSegments(regions []Region, algos []Algorithm) []Segment {
	var segs []Segment
	for _, r := range regions {
		for _, a := range algos {
			segs = append(segs, Segment{Region: r, Algorithm: a})
		}
	}
	return segs
}

// CompareSegments orders segments by region and then by algorithm.
func CompareSegments(a, b Segment) int {
	if a.Region != b.Region {
		return int(a.Region) - int(b.Region)
	}
	return int(a.Algorithm) - int(b.Algorithm)
}
