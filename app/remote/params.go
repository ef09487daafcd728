package remote

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"numviz/app/interfaces"
	"numviz/app/results"
	"numviz/app/sample"
)

const (
	// Counts above these trigger advisory log messages
	LargeCountWarning     = 1_000_000
	VeryLargeCountWarning = 5_000_000

	// MaxTestSample is the largest sample sent to the test-evaluation service
	MaxTestSample = 1000

	MaxModel = 5
)

// ParseDistribution maps a user supplied name to a Distribution.
func ParseDistribution(name string) (interfaces.Distribution, error) {
	switch name {
	case "uniforme", "uniform":
		return interfaces.Uniform, nil
	case "exponencial", "exponential":
		return interfaces.Exponential, nil
	case "normal/boxmuller", "boxmuller", "normal":
		return interfaces.NormalBoxMuller, nil
	case "normal/convolucion", "convolucion", "convolution":
		return interfaces.NormalConvolution, nil
	case "poisson":
		return interfaces.Poisson, nil
	}
	return "", interfaces.NewValidationError("distribution", "unknown distribution %q", name)
}

// ValidateCount checks the requested sample size.
func ValidateCount(n int) error {
	if n < sample.MinCount || n > sample.MaxCount {
		return interfaces.NewValidationError("cant", "count must be between %d and %d, got %d", sample.MinCount, sample.MaxCount, n)
	}
	return nil
}

// CountAdvisory returns a warning for large but valid counts, or "".
func CountAdvisory(n int) string {
	switch {
	case n > VeryLargeCountWarning:
		return fmt.Sprintf("generating %d numbers can severely degrade performance and may exhaust memory", n)
	case n > LargeCountWarning:
		return fmt.Sprintf("generating %d numbers may take a long time", n)
	}
	return ""
}

// Validate checks a generation request before any network or compute work.
func Validate(req interfaces.GenerateRequest) error {
	if err := ValidateCount(req.Count); err != nil {
		return err
	}

	for _, p := range []struct {
		field string
		v     float64
	}{{"a", req.A}, {"b", req.B}, {"lambda", req.Lambda}, {"media", req.Mean}, {"des", req.StdDev}} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return interfaces.NewValidationError(p.field, "value must be finite")
		}
	}

	switch req.Distribution {
	case interfaces.Uniform:
		if req.A >= req.B {
			return interfaces.NewValidationError("a", "lower bound a (%v) must be less than upper bound b (%v)", req.A, req.B)
		}
	case interfaces.Exponential, interfaces.Poisson:
		if req.Lambda <= 0 {
			return interfaces.NewValidationError("lambda", "lambda must be greater than 0, got %v", req.Lambda)
		}
	case interfaces.NormalBoxMuller, interfaces.NormalConvolution:
		if req.StdDev <= 0 {
			return interfaces.NewValidationError("des", "standard deviation must be greater than 0, got %v", req.StdDev)
		}
		if req.Distribution == interfaces.NormalConvolution && req.N < 1 {
			return interfaces.NewValidationError("n", "n must be at least 1, got %d", req.N)
		}
	default:
		return interfaces.NewValidationError("distribution", "unknown distribution %q", req.Distribution)
	}
	return nil
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Query builds the query parameters for a generator endpoint.
func Query(req interfaces.GenerateRequest) url.Values {
	q := url.Values{}
	switch req.Distribution {
	case interfaces.Uniform:
		q.Set("a", formatParam(req.A))
		q.Set("b", formatParam(req.B))
	case interfaces.Exponential:
		q.Set("param", formatParam(req.Lambda))
	case interfaces.NormalBoxMuller:
		q.Set("media", formatParam(req.Mean))
		q.Set("des", formatParam(req.StdDev))
	case interfaces.NormalConvolution:
		q.Set("media", formatParam(req.Mean))
		q.Set("des", formatParam(req.StdDev))
		q.Set("n", strconv.Itoa(req.N))
	case interfaces.Poisson:
		q.Set("lambd", formatParam(req.Lambda))
	}
	q.Set("cant", strconv.Itoa(req.Count))
	return q
}

// TestRequest is the body posted to the test-evaluation service.
type TestRequest struct {
	Rnd       []float64 `json:"rnd"`
	Alpha     float64   `json:"a"`
	Intervals int       `json:"i"`
	Model     int       `json:"mo"`
}

// NewTestRequest reduces values to at most MaxTestSample elements with the
// stride scheme and validates the test parameters.
func NewTestRequest(values []float64, alpha float64, intervals, model int) (*TestRequest, error) {
	req := &TestRequest{
		Rnd:       sample.Stride(values, MaxTestSample),
		Alpha:     alpha,
		Intervals: intervals,
		Model:     model,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks the test parameters.
func (r *TestRequest) Validate() error {
	if len(r.Rnd) == 0 {
		return interfaces.NewValidationError("rnd", "no numbers to test")
	}
	if len(r.Rnd) > MaxTestSample {
		return interfaces.NewValidationError("rnd", "at most %d numbers can be tested, got %d", MaxTestSample, len(r.Rnd))
	}
	if !(r.Alpha > 0 && r.Alpha < 1) {
		return interfaces.NewValidationError("a", "significance level must be in (0, 1), got %v", r.Alpha)
	}
	if r.Intervals < 1 {
		return interfaces.NewValidationError("i", "interval count must be at least 1, got %d", r.Intervals)
	}
	if r.Model < 0 || r.Model > MaxModel {
		return interfaces.NewValidationError("mo", "model must be between 0 and %d, got %d", MaxModel, r.Model)
	}
	return nil
}

// testPath maps a test kind to its endpoint.
func testPath(kind results.Kind) (string, error) {
	switch kind {
	case results.ChiSquare:
		return "/tests/chi-cuadrado", nil
	case results.KolmogorovSmirnov:
		return "/tests/k-s", nil
	}
	return "", interfaces.NewValidationError("test", "unknown test %q", kind)
}
