package heads

import "math/rand"

//go:generate mockgen -destination=mock/mock_roller.go -package=mockheads -source=roller.go

// Roller decides drop chances. Percent returns a value in [1, 100].
type Roller interface {
	Percent() int
}

type randomRoller struct{}

// NewRandomRoller creates a Roller backed by math/rand
func NewRandomRoller() Roller {
	return &randomRoller{}
}

func (r *randomRoller) Percent() int {
	return rand.Intn(100) + 1
}
