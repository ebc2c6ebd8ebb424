package atlas

// ChartOptions controls chart segmentation.
type ChartOptions struct {
	MaxChartArea      float32 `yaml:"max_chart_area"`      // 0 means no limit
	MaxBoundaryLength float32 `yaml:"max_boundary_length"` // 0 means no limit

	// Weights determine chart growth. Higher weights mean higher cost for that metric.
	NormalDeviationWeight float32 `yaml:"normal_deviation_weight"`
	RoundnessWeight       float32 `yaml:"roundness_weight"`
	StraightnessWeight    float32 `yaml:"straightness_weight"`
	NormalSeamWeight      float32 `yaml:"normal_seam_weight"` // > 1000 respects normal seams fully
	TextureSeamWeight     float32 `yaml:"texture_seam_weight"`

	MaxCost       float32 `yaml:"max_cost"` // growth stops above this total cost
	MaxIterations int     `yaml:"max_iterations"`
}

// PackOptions controls chart packing.
type PackOptions struct {
	MaxChartSize  int     `yaml:"max_chart_size"` // texels, 0 means no limit
	Padding       int     `yaml:"padding"`        // texels around each chart
	TexelsPerUnit float32 `yaml:"texels_per_unit"`
	Resolution    int     `yaml:"resolution"` // 0 fits everything in one atlas
	Bilinear      bool    `yaml:"bilinear"`
	BlockAlign    bool    `yaml:"block_align"`
	BruteForce    bool    `yaml:"brute_force"`
	RotateCharts  bool    `yaml:"rotate_charts"`
}

// DefaultChartOptions returns the reference engine defaults.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		NormalDeviationWeight: 2.0,
		RoundnessWeight:       0.01,
		StraightnessWeight:    6.0,
		NormalSeamWeight:      4.0,
		TextureSeamWeight:     0.5,
		MaxCost:               2.0,
		MaxIterations:         1,
	}
}

// DefaultPackOptions returns the reference engine defaults.
func DefaultPackOptions() PackOptions {
	return PackOptions{
		Bilinear:     true,
		RotateCharts: true,
	}
}
