/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gompm/builder"
	"github.com/notargets/gompm/comm"
	"github.com/notargets/gompm/material"
	"github.com/notargets/gompm/mesh"
	"github.com/notargets/gompm/types"
	"github.com/notargets/gompm/utils"
)

type ModelMPM struct {
	InputFile string
	Output    string
	Profile   bool
	Perf      bool
	Verbose   bool
}

type InputParameters struct {
	Title        string    `yaml:"Title"`
	NRanks       int       `yaml:"NRanks"`
	Nx           int       `yaml:"Nx"`
	Ny           int       `yaml:"Ny"`
	CellSize     float64   `yaml:"CellSize"`
	Origin       []float64 `yaml:"Origin"`
	NQuadratures int       `yaml:"NQuadratures"`
	ParticleType string    `yaml:"ParticleType"`
	Density      float64   `yaml:"Density"`
	Gravity      []float64 `yaml:"Gravity"`
	InitVelocity []float64 `yaml:"InitVelocity"`
	NSteps       int       `yaml:"NSteps"`
	DT           float64   `yaml:"DT"`
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t= NRanks\n", ip.NRanks)
	fmt.Printf("[%dx%d]\t\t\t= Grid\n", ip.Nx, ip.Ny)
	fmt.Printf("%8.5f\t\t= CellSize\n", ip.CellSize)
	fmt.Printf("[%d]\t\t\t= NQuadratures\n", ip.NQuadratures)
	fmt.Printf("[%s]\t\t\t= ParticleType\n", ip.ParticleType)
	fmt.Printf("%8.3f\t\t= Density\n", ip.Density)
	fmt.Printf("[%d]\t\t\t= NSteps\n", ip.NSteps)
	fmt.Printf("%8.6f\t\t= DT\n", ip.DT)
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Material point method run over a structured grid, decomposed across ranks",
	Long: `
Builds the background grid, seeds material points, decomposes the domain into
rank strips and runs the explicit MPM update loop,

gompm run -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		m := &ModelMPM{}
		if m.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		m.Output, _ = cmd.Flags().GetString("output")
		m.Profile, _ = cmd.Flags().GetBool("profile")
		m.Perf, _ = cmd.Flags().GetBool("perf")
		m.Verbose, _ = cmd.Flags().GetBool("verbose")
		ip := processInput(m)
		RunMPM(m, ip)
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputFile", "I", "", "YAML file for input parameters like:\n\t- Grid size\n\t- DT")
	RunCmd.Flags().StringP("output", "o", "particles", "output file prefix, one particle table per rank")
	RunCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the run")
	RunCmd.Flags().Bool("perf", false, "report hardware counter deltas for the run (linux only)")
	RunCmd.Flags().BoolP("verbose", "v", false, "debug-level mesh diagnostics")
}

func processInput(m *ModelMPM) (ip *InputParameters) {
	if len(m.InputFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Falling block"
NRanks: 2
Nx: 20
Ny: 20
CellSize: 0.05
NQuadratures: 2
ParticleType: P2D
Density: 2000.
Gravity: [0., -9.81]
NSteps: 100
DT: 0.0001
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	data, err := os.ReadFile(m.InputFile)
	if err != nil {
		panic(err)
	}
	ip = &InputParameters{
		NRanks:       1,
		NQuadratures: 1,
		ParticleType: "P2D",
		Density:      1000,
		NSteps:       1,
		DT:           1e-4,
	}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	if len(ip.Origin) == 0 {
		ip.Origin = []float64{0, 0}
	}
	if len(ip.Gravity) == 0 {
		ip.Gravity = []float64{0, 0}
	}
	if len(ip.InitVelocity) == 0 {
		ip.InitVelocity = []float64{0, 0}
	}
	return
}

func RunMPM(m *ModelMPM, ip *InputParameters) {
	ip.Print()
	if m.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	stopPerf := startPerf(m.Perf)
	defer stopPerf()

	level := slog.LevelInfo
	if m.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	group := comm.NewGroup(ip.NRanks)
	var wg sync.WaitGroup
	for rank := 0; rank < ip.NRanks; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			if err := runRank(m, ip, group.Rank(rank), log); err != nil {
				log.Error("rank failed", "rank", rank, "err", err)
				os.Exit(1)
			}
		}(rank)
	}
	wg.Wait()
}

// runRank is one rank's whole life: build the replicated grid, claim a cell
// strip, seed and own material points, then march the explicit update loop.
func runRank(m *ModelMPM, ip *InputParameters, c *comm.Communicator, log *slog.Logger) error {
	mm, err := mesh.NewMesh(uint32(c.Rank()), 2, log)
	if err != nil {
		return err
	}
	mm.AttachCommunicator(c)
	if err = mm.InitialiseMaterials([]*material.Material{
		{ID: 1, Name: "bulk", Density: ip.Density},
	}); err != nil {
		return err
	}
	if err = builder.Rectangular(mm, [2]float64{ip.Origin[0], ip.Origin[1]},
		ip.Nx, ip.Ny, ip.CellSize); err != nil {
		return err
	}

	// Strip decomposition over the cell index range; every rank derives the
	// same assignment from the replicated topology.
	pm := utils.NewPartitionMap(c.Size(), mm.NCells())
	for r := 0; r < c.Size(); r++ {
		kMin, kMax := pm.GetBucketRange(r)
		for k := kMin; k < kMax; k++ {
			cell, _ := mm.GetCell(types.Index(k))
			cell.SetRank(r)
		}
	}
	mm.FindDomainSharedNodes()
	mm.FindGhostBoundaryCells()

	if err = mm.GenerateMaterialPoints(ip.NQuadratures, ip.ParticleType, 1, types.SetAll); err != nil {
		return err
	}
	mm.RemoveAllNonRankParticles()

	pointVolume := ip.CellSize * ip.CellSize / float64(ip.NQuadratures*ip.NQuadratures)
	mm.IterateOverParticles(func(p *mesh.Particle) {
		p.SetVolume(pointVolume)
		p.SetMass(ip.Density * pointVolume)
		p.SetVelocity(ip.InitVelocity)
	})
	mm.FindActiveNodes()
	log.Info("rank initialised", "rank", c.Rank(),
		"cells", mm.NCells(), "particles", mm.NParticles(),
		"halo_nodes", mm.NHaloNodes(), "ghost_cells", mm.NGhostCells())

	zero := make([]float64, 2)
	for step := 0; step < ip.NSteps; step++ {
		// Reset nodal quantities before the scatter.
		mm.IterateOverNodes(func(n *mesh.Node) {
			n.UpdateMass(false, 0)
			n.UpdateMomentum(false, zero)
		})

		// Particle-to-grid scatter of mass and momentum.
		mm.IterateOverParticles(func(p *mesh.Particle) {
			cell := p.Cell()
			if cell == nil {
				return
			}
			shape := cell.Element().Shapefn(p.ReferenceLocation())
			mom := make([]float64, 2)
			for i, n := range cell.Nodes() {
				w := shape[i] * p.Mass()
				n.UpdateMass(true, w)
				for d := 0; d < 2; d++ {
					mom[d] = w * p.Velocity()[d]
				}
				n.UpdateMomentum(true, mom)
			}
		})

		// Reconcile rank-local accumulations on the shared boundary.
		mm.NodalHaloExchange(3,
			func(n *mesh.Node) []float64 {
				return []float64{n.Mass(), n.Momentum()[0], n.Momentum()[1]}
			},
			func(n *mesh.Node, v []float64) {
				n.UpdateMass(false, v[0])
				n.UpdateMomentum(false, v[1:3])
			},
		)
		mm.IterateOverActiveNodes(func(n *mesh.Node) { n.ComputeVelocity() })

		// Grid-to-particle gather plus gravity, then advect.
		mm.IterateOverParticles(func(p *mesh.Particle) {
			cell := p.Cell()
			if cell == nil {
				return
			}
			shape := cell.Element().Shapefn(p.ReferenceLocation())
			v := make([]float64, 2)
			for i, n := range cell.Nodes() {
				for d := 0; d < 2; d++ {
					v[d] += shape[i] * n.Velocity()[d]
				}
			}
			for d := 0; d < 2; d++ {
				v[d] += ip.Gravity[d] * ip.DT
			}
			p.SetVelocity(v)
			x := append([]float64(nil), p.Coordinates()...)
			for d := 0; d < 2; d++ {
				x[d] += v[d] * ip.DT
			}
			p.SetCoordinates(x)
		})

		unlocated := mm.LocateParticlesMesh()
		if len(unlocated) > 0 {
			// Particles past the grid edge leave the simulation.
			gone := make([]types.Index, len(unlocated))
			for i, p := range unlocated {
				gone[i] = p.ID()
			}
			mm.RemoveParticlesByID(gone)
		}
		mm.TransferNonRankParticles()
		mm.FindActiveNodes()
		c.Barrier()
	}

	out := fmt.Sprintf("%s-%d.bin", m.Output, c.Rank())
	if err = mm.WriteParticles(out); err != nil {
		return err
	}
	log.Info("rank finished", "rank", c.Rank(),
		"steps", ip.NSteps, "particles", mm.NParticles(), "file", out)
	return nil
}
