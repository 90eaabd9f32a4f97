package signal

import (
	"fmt"
	"sort"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Operator type names.
const (
	TypeRollingPercentile                 = "ValueVsRollingPercentile"
	TypeRollingPercentileWithThreshold    = "ValueVsRollingPercentileWithThreshold"
	TypeRunLengthReached                  = "SignalRunLengthReached"
	TypeRunLengthReachedHistoryPercentile = "SignalRunLengthReachedHistoryPercentile"
	TypeRunInterrupted                    = "SignalRunInterrupted"
	TypeRunLengthVsHistoryPercentile      = "SignalRunLengthVsHistoryPercentile"
	TypeValueVsLastTrueReference          = "SignalValueVsLastTrueReference"
	TypeValueVsLastTargetForBase          = "SignalValueVsLastTargetForBase"
	TypeValueVsPrevious                   = "SignalValueVsPrevious"
	TypeValueVsLastSignalRunStatistic     = "SignalValueVsLastSignalRunStatistic"
	TypeEMAFastSlowComparison             = "SignalEMAFastSlowComparison"
	TypeEMADiffVsHistoryPercentile        = "SignalEMADiffVsHistoryPercentile"
	TypeIntervalBetweenMarkers            = "SignalIntervalBetweenMarkers"
	TypeNthTargetWithinWindowAfterTrigger = "SignalNthTargetWithinWindowAfterTrigger"
	TypeIntersection                      = "SignalIntersection"
	TypeExternalFlag                      = "SignalExternalFlag"
)

type constructor func(Params) (Operator, error)

// entry binds a type name to its constructor and exported state names.
type entry struct {
	build constructor
	state []string
}

var runStateNames = []string{"current_run", "tail_remaining"}

var registry = map[string]entry{
	TypeRollingPercentile: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRollingPercentileConfig(p)
			if err != nil {
				return nil, err
			}
			return NewRollingPercentile(cfg)
		},
		state: []string{"last_threshold"},
	},
	TypeRollingPercentileWithThreshold: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRollingPercentileConfig(p)
			if err != nil {
				return nil, err
			}
			return NewRollingPercentileWithThreshold(cfg)
		},
		state: []string{"last_threshold"},
	},
	TypeRunLengthReached: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRunLengthConfig(p)
			if err != nil {
				return nil, err
			}
			return NewRunLengthReached(cfg), nil
		},
		state: runStateNames,
	},
	TypeRunLengthReachedHistoryPercentile: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRunHistoryConfig(p, 1)
			if err != nil {
				return nil, err
			}
			return NewRunLengthReachedHistoryPercentile(cfg)
		},
		state: []string{"current_run", "current_threshold", "last_threshold", "tail_remaining"},
	},
	TypeRunInterrupted: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRunLengthConfig(p)
			if err != nil {
				return nil, err
			}
			return NewRunInterrupted(cfg), nil
		},
		state: runStateNames,
	},
	TypeRunLengthVsHistoryPercentile: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRunHistoryConfig(p, 5)
			if err != nil {
				return nil, err
			}
			return NewRunLengthVsHistoryPercentile(cfg)
		},
		state: runStateNames,
	},
	TypeValueVsLastTrueReference: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseReferenceConfig(p)
			if err != nil {
				return nil, err
			}
			return NewValueVsLastTrueReference(cfg), nil
		},
		state: []string{"last_reference_value"},
	},
	TypeValueVsLastTargetForBase: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseTargetForBaseConfig(p)
			if err != nil {
				return nil, err
			}
			return NewValueVsLastTargetForBase(cfg), nil
		},
		state: []string{"last_target_value"},
	},
	TypeValueVsPrevious: {
		build: func(p Params) (Operator, error) {
			cfg, err := parsePreviousConfig(p)
			if err != nil {
				return nil, err
			}
			return NewValueVsPrevious(cfg), nil
		},
		state: []string{"previous_value"},
	},
	TypeValueVsLastSignalRunStatistic: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseRunStatisticConfig(p)
			if err != nil {
				return nil, err
			}
			return NewValueVsLastSignalRunStatistic(cfg)
		},
		state: []string{"last_statistic"},
	},
	TypeEMAFastSlowComparison: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseEMAFastSlowConfig(p)
			if err != nil {
				return nil, err
			}
			return NewEMAFastSlowComparison(cfg)
		},
		state: []string{"ema_1", "ema_2"},
	},
	TypeEMADiffVsHistoryPercentile: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseEMADiffConfig(p)
			if err != nil {
				return nil, err
			}
			return NewEMADiffVsHistoryPercentile(cfg)
		},
		state: []string{"ema_1", "ema_2", "last_abs_diff", "last_threshold"},
	},
	TypeIntervalBetweenMarkers: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseIntervalConfig(p)
			if err != nil {
				return nil, err
			}
			return NewIntervalBetweenMarkers(cfg)
		},
		state: []string{"last_interval_length"},
	},
	TypeNthTargetWithinWindowAfterTrigger: {
		build: func(p Params) (Operator, error) {
			cfg, err := parseNthTargetConfig(p)
			if err != nil {
				return nil, err
			}
			return NewNthTargetWithinWindowAfterTrigger(cfg)
		},
	},
	TypeIntersection: {
		build: func(p Params) (Operator, error) {
			keys, err := p.Strings("signal_keys")
			if err != nil {
				return nil, err
			}
			return NewIntersection(keys)
		},
	},
	TypeExternalFlag: {
		build: func(p Params) (Operator, error) {
			return NewExternalFlag(p.String("signal_key", ""), p.Scalar("true_value", int64(1)))
		},
	},
}

// New constructs an operator of the given type from raw parameters.
func New(typ string, params Params) (Operator, error) {
	e, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	op, err := e.build(params)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", typ, err)
	}
	return op, nil
}

// Types returns every registered type name, sorted.
func Types() []string {
	out := make([]string, 0, len(registry))
	for typ := range registry {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// StateNames returns the exported state names of typ, in State order.
func StateNames(typ string) []string {
	names := registry[typ].state
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Defs returns the parameter schema of every operator type.
func Defs() domain.SignalDefs {
	out := make(domain.SignalDefs, len(schema))
	for _, d := range schema {
		params := make([]domain.ParamDef, len(d.Params))
		copy(params, d.Params)
		out[d.Type] = domain.SignalDef{Type: d.Type, Params: params}
	}
	return out
}
