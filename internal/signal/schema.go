package signal

import "github.com/ShenglingZHU/hiera-tf/internal/domain"

func column(name string) domain.ParamDef {
	return domain.ParamDef{Name: name, Kind: domain.ParamColumn, Default: domain.RawValueKey}
}

func number(name string, def any) domain.ParamDef {
	return domain.ParamDef{Name: name, Kind: domain.ParamNumber, Default: def}
}

func optionalNumber(name string) domain.ParamDef {
	return domain.ParamDef{Name: name, Kind: domain.ParamNumber, Optional: true}
}

func choice(name string, def string, options ...string) domain.ParamDef {
	return domain.ParamDef{Name: name, Kind: domain.ParamSelect, Default: def, Options: options}
}

func dependency(name string) domain.ParamDef {
	return domain.ParamDef{Name: name, Kind: domain.ParamSignal}
}

func text(name string, def string) domain.ParamDef {
	return domain.ParamDef{Name: name, Kind: domain.ParamText, Default: def}
}

var rollingParams = []domain.ParamDef{
	column("value_key"),
	number("window_size", 20),
	number("percentile", 50),
	{Name: "include_current", Kind: domain.ParamBoolean, Default: false},
	number("min_history", 1),
	choice("comparison", "gt", "gt", "lt"),
}

var schema = []domain.SignalDef{
	{Type: TypeRollingPercentile, Params: rollingParams},
	{Type: TypeRollingPercentileWithThreshold, Params: rollingParams},
	{Type: TypeRunLengthReached, Params: []domain.ParamDef{
		dependency("signal_key"),
		text("target_value", "1"),
		number("min_run_length", 3),
		number("post_run_extension", 0),
	}},
	{Type: TypeRunLengthReachedHistoryPercentile, Params: []domain.ParamDef{
		dependency("signal_key"),
		text("target_value", "1"),
		number("history_window", 100),
		number("percentile", 90),
		number("min_history_runs", 1),
		number("post_run_extension", 0),
		optionalNumber("run_trace_limit"),
	}},
	{Type: TypeRunInterrupted, Params: []domain.ParamDef{
		dependency("signal_key"),
		text("target_value", "1"),
		number("min_run_length", 3),
		number("post_run_extension", 0),
	}},
	{Type: TypeRunLengthVsHistoryPercentile, Params: []domain.ParamDef{
		dependency("signal_key"),
		text("target_value", "1"),
		number("history_window", 100),
		number("percentile", 90),
		number("min_history_runs", 5),
		number("post_run_extension", 0),
	}},
	{Type: TypeValueVsLastTrueReference, Params: []domain.ParamDef{
		column("value_key"),
		dependency("reference_signal_key"),
		choice("comparison", "lt", "lt", "gt"),
	}},
	{Type: TypeValueVsLastTargetForBase, Params: []domain.ParamDef{
		column("value_key"),
		dependency("base_signal_key"),
		dependency("target_signal_key"),
		choice("comparison", "lt", "lt", "gt"),
	}},
	{Type: TypeValueVsPrevious, Params: []domain.ParamDef{
		column("value_key"),
		choice("comparison", "gt", "gt", "lt"),
	}},
	{Type: TypeValueVsLastSignalRunStatistic, Params: []domain.ParamDef{
		column("value_key"),
		dependency("signal_key"),
		choice("statistic", "mean", "mean", "min", "max", "median", "percentile"),
		number("percentile", 50),
		choice("comparison", "gt", "gt", "lt"),
	}},
	{Type: TypeEMAFastSlowComparison, Params: []domain.ParamDef{
		column("value_key"),
		number("ema_period_1", 12),
		number("ema_period_2", 26),
		choice("prefer", "fast", "fast", "slow"),
	}},
	{Type: TypeEMADiffVsHistoryPercentile, Params: []domain.ParamDef{
		column("value_key"),
		number("ema_period_1", 12),
		number("ema_period_2", 26),
		number("history_window", 50),
		number("percentile", 90),
		number("min_history", 1),
		choice("comparison", "gt", "gt", "lt"),
		optionalNumber("trace_limit"),
	}},
	{Type: TypeIntervalBetweenMarkers, Params: []domain.ParamDef{
		dependency("start_signal_key"),
		dependency("end_signal_key"),
		optionalNumber("max_length"),
		optionalNumber("intervals_limit"),
	}},
	{Type: TypeNthTargetWithinWindowAfterTrigger, Params: []domain.ParamDef{
		dependency("trigger_signal_key"),
		dependency("target_signal_key"),
		number("window_length", 20),
		number("target_index", 1),
	}},
	{Type: TypeIntersection, Params: []domain.ParamDef{
		{Name: "signal_keys", Kind: domain.ParamSignalList},
	}},
	{Type: TypeExternalFlag, Params: []domain.ParamDef{
		text("signal_key", ""),
		text("true_value", "1"),
	}},
}
