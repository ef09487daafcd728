package remote

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"numviz/app/interfaces"
)

// LocalGenerator draws samples in-process. It serves the same requests as
// the remote generator when the service is unavailable.
type LocalGenerator struct {
	mu  sync.Mutex
	src rand.Source
}

// NewLocalGenerator returns a generator seeded with seed, or with the
// current time when seed is 0.
func NewLocalGenerator(seed uint64) *LocalGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &LocalGenerator{src: rand.NewSource(seed)}
}

// Generate validates req and draws req.Count values. Cancellation is checked
// every 1000 values.
func (g *LocalGenerator) Generate(ctx context.Context, req interfaces.GenerateRequest) ([]float64, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	draw := g.sampler(req)
	values := make([]float64, req.Count)
	for i := range values {
		if i%1000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		values[i] = draw()
	}
	return values, nil
}

func (g *LocalGenerator) sampler(req interfaces.GenerateRequest) func() float64 {
	switch req.Distribution {
	case interfaces.Uniform:
		return distuv.Uniform{Min: req.A, Max: req.B, Src: g.src}.Rand
	case interfaces.Exponential:
		return distuv.Exponential{Rate: req.Lambda, Src: g.src}.Rand
	case interfaces.NormalBoxMuller:
		return distuv.Normal{Mu: req.Mean, Sigma: req.StdDev, Src: g.src}.Rand
	case interfaces.Poisson:
		return distuv.Poisson{Lambda: req.Lambda, Src: g.src}.Rand
	}

	// Convolution: the sum of n unit uniforms has mean n/2 and variance n/12
	unit := distuv.Uniform{Min: 0, Max: 1, Src: g.src}
	n := float64(req.N)
	scale := req.StdDev / math.Sqrt(n/12)
	return func() float64 {
		sum := 0.0
		for i := 0; i < req.N; i++ {
			sum += unit.Rand()
		}
		return (sum-n/2)*scale + req.Mean
	}
}
