package stats

// EMA is an exponential moving average with alpha = 2/(period+1).
// The first update seeds the average with the observed value.
type EMA struct {
	period int
	alpha  float64
	value  float64
	seeded bool
}

// NewEMA creates an EMA. period must be positive.
func NewEMA(period int) *EMA {
	return &EMA{period: period, alpha: 2.0 / float64(period+1)}
}

// Update folds x into the average and returns the new value.
func (e *EMA) Update(x float64) float64 {
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current average, false before the first update.
func (e *EMA) Value() (float64, bool) {
	return e.value, e.seeded
}

// Period returns the configured period.
func (e *EMA) Period() int {
	return e.period
}

// Reset forgets all observations.
func (e *EMA) Reset() {
	e.value = 0
	e.seeded = false
}
