package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters of a refinement study obtained from the YAML input file
type RefinementStudy struct {
	Title       string    `json:"Title"`
	Target      string    `json:"Target"` // cosine or peak
	Dimensions  int       `json:"Dimensions"`
	Depth       int       `json:"Depth"`
	Order       int       `json:"Order"` // 1 = linear, 2 = quadratic, 3 = cubic
	Rule        string    `json:"Rule"`
	Strategy    string    `json:"Strategy"`
	Criterion   string    `json:"Criterion"`
	Tolerance   float64   `json:"Tolerance"`
	Output      int       `json:"Output"` // -1 refines on every output
	Iterations  int       `json:"Iterations"`
	LevelLimits []int     `json:"LevelLimits"`
	TestPoints  int       `json:"TestPoints"`
	Seed        int64     `json:"Seed"`
	DomainLower []float64 `json:"DomainLower"`
	DomainUpper []float64 `json:"DomainUpper"`
}

// DefaultRefinementStudy is the two dimensional cosine study with the fds strategy.
func DefaultRefinementStudy() RefinementStudy {
	return RefinementStudy{
		Title:      "Adaptive refinement",
		Target:     "cosine",
		Dimensions: 2,
		Depth:      1,
		Order:      1,
		Rule:       "localp",
		Strategy:   "fds",
		Criterion:  "absolute",
		Tolerance:  1.e-5,
		Output:     -1,
		Iterations: 6,
		TestPoints: 1000,
		Seed:       1,
	}
}

// Parse overlays the file content onto the current values, absent keys keep them
func (ip *RefinementStudy) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *RefinementStudy) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Target\n", ip.Target)
	fmt.Printf("[%d]\t\t\t\t= Dimensions\n", ip.Dimensions)
	fmt.Printf("[%d]\t\t\t\t= Initial Depth\n", ip.Depth)
	fmt.Printf("[%d]\t\t\t\t= Basis Order\n", ip.Order)
	fmt.Printf("[%s]\t\t\t= Rule\n", ip.Rule)
	fmt.Printf("[%s]\t\t\t= Strategy\n", ip.Strategy)
	fmt.Printf("[%s]\t\t= Criterion\n", ip.Criterion)
	fmt.Printf("%8.2e\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t\t= Refinement Iterations\n", ip.Iterations)
	fmt.Printf("[%d]\t\t\t= Test Points\n", ip.TestPoints)
	if ip.LevelLimits != nil {
		fmt.Printf("%v\t\t\t= Level Limits\n", ip.LevelLimits)
	}
	if ip.DomainLower != nil {
		fmt.Printf("%v x %v\t= Domain\n", ip.DomainLower, ip.DomainUpper)
	}
}
