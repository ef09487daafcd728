package interfaces

import "context"

// Logger is implemented by anything that accepts leveled log lines.
// Levels are "debug", "info", "warn" and "error".
type Logger interface {
	Log(level, message string)
}

// LoggerFunc adapts a plain function to the Logger interface.
type LoggerFunc func(level, message string)

func (f LoggerFunc) Log(level, message string) { f(level, message) }

// ProgressCallback receives progress updates from long running stages.
type ProgressCallback func(stage string, current, total int64, message string)

// Generator produces a fresh numeric sample for a distribution request.
// The remote generator service and the local fallback both implement it.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]float64, error)
}

// Distribution names a generator endpoint.
type Distribution string

const (
	Uniform           Distribution = "uniforme"
	Exponential       Distribution = "exponencial"
	NormalBoxMuller   Distribution = "normal/boxmuller"
	NormalConvolution Distribution = "normal/convolucion"
	Poisson           Distribution = "poisson"
)

// Distributions lists every supported distribution in display order.
var Distributions = []Distribution{Uniform, Exponential, NormalBoxMuller, NormalConvolution, Poisson}

// GenerateRequest carries the parameters for one generation call. Only the
// fields relevant to Distribution are used.
type GenerateRequest struct {
	Distribution Distribution `json:"distribution" yaml:"distribution"`
	Count        int          `json:"cant" yaml:"cant"`

	// Uniform bounds
	A float64 `json:"a,omitempty" yaml:"a,omitempty"`
	B float64 `json:"b,omitempty" yaml:"b,omitempty"`

	// Rate for the exponential distribution, mean for Poisson
	Lambda float64 `json:"lambda,omitempty" yaml:"lambda,omitempty"`

	// Normal parameters; N is the number of uniforms summed by the convolution method
	Mean   float64 `json:"media,omitempty" yaml:"media,omitempty"`
	StdDev float64 `json:"des,omitempty" yaml:"des,omitempty"`
	N      int     `json:"n,omitempty" yaml:"n,omitempty"`
}
