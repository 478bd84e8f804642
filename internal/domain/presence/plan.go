package presence

// Plan is the cut decision for one video.
type Plan struct {
	Duration   float64             `json:"duration_sec"`
	Exclusions []ExclusionInterval `json:"exclusions"`
	Keeps      []KeepInterval      `json:"keeps"`
}

// BuildPlan normalizes the toggle timestamps, derives the keep intervals and
// checks that both sets tile the timeline before anything is encoded.
func BuildPlan(duration float64, events []float64, opts NormalizeOptions) (Plan, error) {
	ex, err := Normalize(events, duration, opts)
	if err != nil {
		return Plan{}, err
	}
	keeps, err := KeepIntervals(ex, duration)
	if err != nil {
		return Plan{}, err
	}
	if err := CheckCoverage(ex, keeps, duration); err != nil {
		return Plan{}, err
	}
	return Plan{Duration: duration, Exclusions: ex, Keeps: keeps}, nil
}

func (p Plan) RemovedSeconds() float64 { return RemovedSeconds(p.Exclusions) }

func (p Plan) KeptSeconds() float64 { return p.Duration - p.RemovedSeconds() }
