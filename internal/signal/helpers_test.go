package signal

import (
	"strings"
	"testing"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// values builds one step per raw value.
func values(xs ...any) []domain.Features {
	out := make([]domain.Features, len(xs))
	for i, x := range xs {
		out[i] = domain.Features{domain.RawValueKey: x}
	}
	return out
}

// flags builds one step per bit under key.
func flags(key string, bs ...int) []domain.Features {
	out := make([]domain.Features, len(bs))
	for i, b := range bs {
		out[i] = domain.Features{key: b == 1}
	}
	return out
}

func feed(op Operator, steps []domain.Features) string {
	var sb strings.Builder
	for _, f := range steps {
		if op.Update(f) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func mustNew(t *testing.T, typ string, params Params) Operator {
	t.Helper()
	op, err := New(typ, params)
	if err != nil {
		t.Fatalf("New(%s) failed: %v", typ, err)
	}
	return op
}

func stateOf(t *testing.T, op Operator, name string) StateValue {
	t.Helper()
	r, ok := op.(StateReporter)
	if !ok {
		t.Fatalf("%T does not report state", op)
	}
	for _, v := range r.State() {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("%T has no state %q", op, name)
	return StateValue{}
}
