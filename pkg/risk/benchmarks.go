package risk

import "strings"

// Benchmark is the typical score range observed for a contract type.
type Benchmark struct {
	ContractType string  `json:"contract_type"`
	TypicalLow   float64 `json:"typical_low"`
	TypicalHigh  float64 `json:"typical_high"`
	// WatchCategories are the categories that most often drive the score
	// above the typical range for this contract type.
	WatchCategories []string `json:"watch_categories"`
}

var benchmarks = map[string]Benchmark{
	"nda": {
		ContractType:    "nda",
		TypicalLow:      10,
		TypicalHigh:     35,
		WatchCategories: []string{"confidentiality", "intellectual_property"},
	},
	"msa": {
		ContractType:    "msa",
		TypicalLow:      25,
		TypicalHigh:     55,
		WatchCategories: []string{"liability", "indemnification", "termination"},
	},
	"employment": {
		ContractType:    "employment",
		TypicalLow:      20,
		TypicalHigh:     50,
		WatchCategories: []string{"termination", "intellectual_property", "dispute_resolution"},
	},
	"license": {
		ContractType:    "license",
		TypicalLow:      20,
		TypicalHigh:     50,
		WatchCategories: []string{"intellectual_property", "liability"},
	},
	"saas": {
		ContractType:    "saas",
		TypicalLow:      25,
		TypicalHigh:     60,
		WatchCategories: []string{"data_handling", "liability", "termination"},
	},
	"lease": {
		ContractType:    "lease",
		TypicalLow:      20,
		TypicalHigh:     45,
		WatchCategories: []string{"termination", "liability"},
	},
}

var defaultBenchmark = Benchmark{
	ContractType:    "general",
	TypicalLow:      20,
	TypicalHigh:     50,
	WatchCategories: []string{"liability", "indemnification", "termination"},
}

// BenchmarkFor returns the benchmark for a contract type, falling back to
// the general benchmark for unknown types.
func BenchmarkFor(contractType string) Benchmark {
	key := strings.ToLower(strings.TrimSpace(contractType))
	if b, ok := benchmarks[key]; ok {
		return b
	}
	return defaultBenchmark
}
