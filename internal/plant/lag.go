package plant

// Lag is a chain of identical first order lags, K/(tau*s+1)^N. Three or more
// stages oscillate under relay feedback, which makes it the reference plant
// for tuning.
type Lag struct {
	Stages int
	Gain   float64
	Tau    float64
}

func NewLag(stages int, gain, tau float64) *Lag {
	if stages < 1 {
		stages = 1
	}
	return &Lag{Stages: stages, Gain: gain, Tau: tau}
}

func (l *Lag) StateDim() int { return l.Stages }

func (l *Lag) Derive(x State, u, t float64) State {
	dx := make(State, l.Stages)
	in := l.Gain * u
	for i := 0; i < l.Stages; i++ {
		dx[i] = (in - x[i]) / l.Tau
		in = x[i]
	}
	return dx
}

func (l *Lag) Output(x State) float64 { return x[l.Stages-1] }

func (l *Lag) GetParams() map[string]float64 {
	return map[string]float64{"gain": l.Gain, "tau": l.Tau}
}

func (l *Lag) SetParam(name string, value float64) {
	switch name {
	case "gain":
		l.Gain = value
	case "tau":
		if value > 0 {
			l.Tau = value
		}
	}
}
