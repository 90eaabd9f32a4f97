package feed

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/hierarchy"
)

// Handler receives the per-view states produced by one point.
type Handler func(msg Message, states []hierarchy.ViewState)

// Pump feeds every message from src into fw until src is closed or ctx is
// done. When series is non-empty, messages for other series are skipped.
// It returns the number of points applied.
func Pump(ctx context.Context, src <-chan Message, fw *hierarchy.Framework, series string, handle Handler, log zerolog.Logger) (int, error) {
	applied := 0
	for {
		select {
		case <-ctx.Done():
			return applied, ctx.Err()
		case msg, ok := <-src:
			if !ok {
				return applied, nil
			}
			if series != "" && msg.Series != "" && msg.Series != series {
				log.Debug().Str("series", msg.Series).Msg("point for other series skipped")
				continue
			}
			states := fw.OnNewPoint(msg.Point)
			applied++
			if handle != nil {
				handle(msg, states)
			}
		}
	}
}
