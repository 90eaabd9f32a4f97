package signal

import "errors"

// Construction errors. Update never fails.
var (
	ErrUnknownType       = errors.New("unknown signal type")
	ErrInvalidParam      = errors.New("invalid parameter")
	ErrMissingKey        = errors.New("missing feature key")
	ErrInvalidComparison = errors.New("comparison must be 'gt' or 'lt'")
	ErrInvalidPercentile = errors.New("percentile must be between 0 and 100")
	ErrInvalidPeriod     = errors.New("EMA periods must be > 0")
	ErrEqualPeriods      = errors.New("ema_period_1 and ema_period_2 must differ")
	ErrInvalidWindow     = errors.New("window length must be > 0")
	ErrInvalidHistory    = errors.New("invalid history bounds")
	ErrInvalidStatistic  = errors.New("statistic must be one of: mean, min, max, median, percentile")
	ErrInsufficientKeys  = errors.New("signal_keys must contain at least 2 keys")
	ErrDuplicateKeys     = errors.New("signal_keys must be unique")
)
