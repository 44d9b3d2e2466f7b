package scoring

// Tier awards Points when a value is strictly above Above.
type Tier struct {
	Above  float64 `yaml:"above"`
	Points float64 `yaml:"points"`
}

// Tiers is ordered highest breakpoint first; the first match wins.
type Tiers []Tier

// Score returns the points of the first tier the value clears, or 0.
func (t Tiers) Score(v float64) float64 {
	for _, tier := range t {
		if v > tier.Above {
			return tier.Points
		}
	}
	return 0
}

// BelowTier awards Points when a value is strictly below Below.
type BelowTier struct {
	Below  float64 `yaml:"below"`
	Points float64 `yaml:"points"`
}

// BelowTiers is ordered lowest breakpoint first; the first match wins.
type BelowTiers []BelowTier

// Score returns the points of the first tier the value is under, or 0.
func (t BelowTiers) Score(v float64) float64 {
	for _, tier := range t {
		if v < tier.Below {
			return tier.Points
		}
	}
	return 0
}

// MultipleTier awards Points when recent > base*Multiple.
// Comparing products keeps a zero base well defined.
type MultipleTier struct {
	Multiple float64 `yaml:"multiple"`
	Points   float64 `yaml:"points"`
}

// MultipleTiers is ordered highest multiple first.
type MultipleTiers []MultipleTier

// Score returns the points of the first tier recent clears relative to base.
func (t MultipleTiers) Score(base, recent float64) float64 {
	for _, tier := range t {
		if recent > base*tier.Multiple {
			return tier.Points
		}
	}
	return 0
}

// AgeBand awards Points when From <= age <= To. To of 0 leaves the band open.
type AgeBand struct {
	From   float64 `yaml:"from"`
	To     float64 `yaml:"to"`
	Points float64 `yaml:"points"`
}

// AgeBands is an ordered list of bands with a fallback.
type AgeBands struct {
	Bands     []AgeBand `yaml:"bands"`
	Otherwise float64   `yaml:"otherwise"`
}

// Score returns the points of the first band containing age.
func (b AgeBands) Score(age float64) float64 {
	for _, band := range b.Bands {
		if age < band.From {
			continue
		}
		if band.To > 0 && age > band.To {
			continue
		}
		return band.Points
	}
	return b.Otherwise
}

// LabelTier maps a minimum total to a probability label.
type LabelTier struct {
	AtLeast float64 `yaml:"at_least"`
	Label   string  `yaml:"label"`
	Note    string  `yaml:"note,omitempty"`
	Warn    bool    `yaml:"warn,omitempty"` // Note is a warning rather than a signal
}

// LabelTiers is ordered highest first with a fallback tier.
type LabelTiers struct {
	Tiers    []LabelTier `yaml:"tiers"`
	Fallback LabelTier   `yaml:"fallback"`
}

// Pick returns the first tier whose minimum the total reaches.
func (l LabelTiers) Pick(total float64) LabelTier {
	for _, t := range l.Tiers {
		if total >= t.AtLeast {
			return t
		}
	}
	return l.Fallback
}

// Lowest returns the label used for unscorable tokens.
func (l LabelTiers) Lowest() string {
	return l.Fallback.Label
}

// CappedFactor returns Capped when a value is above Above, else value*Scale.
type CappedFactor struct {
	Above  float64 `yaml:"above"`
	Capped float64 `yaml:"capped"`
	Scale  float64 `yaml:"scale"`
}

// Apply evaluates the factor.
func (f CappedFactor) Apply(v float64) float64 {
	if v > f.Above {
		return f.Capped
	}
	return v * f.Scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
