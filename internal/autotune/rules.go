package autotune

import (
	"sort"

	"github.com/pkg/errors"
)

// Rule maps the ultimate gain Ku and period Tu to PID gains:
// Kp = P*Ku, Ki = I*Ku/Tu, Kd = D*Ku*Tu.
type Rule struct {
	Name    string
	P, I, D float64
}

var (
	ZieglerNicholsP   = Rule{Name: "zn-p", P: 0.5}
	ZieglerNicholsPI  = Rule{Name: "zn-pi", P: 0.45, I: 0.54}
	ZieglerNicholsPD  = Rule{Name: "zn-pd", P: 0.8, D: 0.1}
	ZieglerNicholsPID = Rule{Name: "zn-pid", P: 0.6, I: 1.2, D: 0.075}

	TyreusLuybenPI  = Rule{Name: "tl-pi", P: 0.3125, I: 0.142}
	TyreusLuybenPID = Rule{Name: "tl-pid", P: 0.4545, I: 0.2066, D: 0.0721}

	CianconeMarlinPI  = Rule{Name: "cm-pi", P: 0.303, I: 1.212}
	CianconeMarlinPID = Rule{Name: "cm-pid", P: 0.303, I: 1.333, D: 0.037}

	PessenIntegral = Rule{Name: "pessen", P: 0.7, I: 1.75, D: 0.105}
	SomeOvershoot  = Rule{Name: "some-overshoot", P: 0.333, I: 0.667, D: 0.111}
	NoOvershoot    = Rule{Name: "no-overshoot", P: 0.2, I: 0.4, D: 0.0667}
)

var rules = map[string]Rule{}

func init() {
	for _, r := range []Rule{
		ZieglerNicholsP, ZieglerNicholsPI, ZieglerNicholsPD, ZieglerNicholsPID,
		TyreusLuybenPI, TyreusLuybenPID,
		CianconeMarlinPI, CianconeMarlinPID,
		PessenIntegral, SomeOvershoot, NoOvershoot,
	} {
		rules[r.Name] = r
	}
}

func RuleByName(name string) (Rule, error) {
	r, ok := rules[name]
	if !ok {
		return Rule{}, errors.Wrapf(ErrUnknownRule, "%q", name)
	}
	return r, nil
}

// Rules lists all built-in rules by name.
func Rules() []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type Gains struct {
	Kp, Ki, Kd float64
}

// NotReady is reported before a full oscillation has been observed.
var NotReady = Gains{Kp: -1, Ki: -1, Kd: -1}

// Apply computes gains for ultimate gain ku and period tu.
func (r Rule) Apply(ku, tu float64) Gains {
	return Gains{Kp: r.P * ku, Ki: r.I * ku / tu, Kd: r.D * ku * tu}
}
