package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestRunInput(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Falling block
NRanks: 2
Nx: 20
Ny: 10
CellSize: 0.05
NQuadratures: 2
ParticleType: P2D
Density: 2000.
Gravity: [0., -9.81]
NSteps: 100
DT: 0.0001
`)
	var input InputParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.NRanks, 2)
	assert.Equal(t, input.Nx, 20)
	assert.Equal(t, input.Ny, 10)
	assert.Equal(t, input.CellSize, 0.05)
	assert.Equal(t, input.Gravity[1], -9.81)
	input.Print()
	assert.Equal(t, input.DT, 0.0001)
}
