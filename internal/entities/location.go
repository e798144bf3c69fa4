package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a point in a named world
type Location struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// Add returns the location offset by the given deltas
func (l Location) Add(dx, dy, dz float64) Location {
	return Location{World: l.World, X: l.X + dx, Y: l.Y + dy, Z: l.Z + dz}
}

// DistanceSquared returns the squared distance, or -1 across worlds
func (l Location) DistanceSquared(o Location) float64 {
	if l.World != o.World {
		return -1
	}
	dx, dy, dz := l.X-o.X, l.Y-o.Y, l.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// String renders the world:x:y:z form accepted by ParseLocation
func (l Location) String() string {
	return fmt.Sprintf("%s:%g:%g:%g", l.World, l.X, l.Y, l.Z)
}

// ParseLocation parses "world:x:y:z"
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] == "" {
		return Location{}, fmt.Errorf("invalid location %q: expected world:x:y:z", s)
	}

	coords := make([]float64, 3)
	for i, raw := range parts[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Location{}, fmt.Errorf("invalid location %q: %w", s, err)
		}
		coords[i] = v
	}

	return Location{World: parts[0], X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
