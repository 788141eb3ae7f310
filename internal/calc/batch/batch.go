// Package batch runs one calculator over many forms. A bad form fails only its
// own item.
package batch

import (
	"encoding/json"
	"errors"
	"fmt"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/drill"
	"Feedspeed/internal/calc/endmill"
	"Feedspeed/internal/calc/thread"
	"Feedspeed/internal/metrics"
	"Feedspeed/internal/refdata"
)

// MaxItems bounds a single batch.
const MaxItems = 500

type Kind string

const (
	KindEndmill Kind = "endmill"
	KindDrill   Kind = "drill"
	KindThread  Kind = "thread"
)

var (
	ErrNoItems = errors.New("no items")
	// ErrPayload marks a body that is not a batch document.
	ErrPayload = errors.New("invalid batch payload")
)

// Form is a calculator request that converts to calculator input.
type Form[I any] interface {
	Input() (I, error)
}

type Item[T any] struct {
	Row    int    `json:"row"`
	Result *T     `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Result[T any] struct {
	Count  int       `json:"count"`
	Failed int       `json:"failed"`
	Items  []Item[T] `json:"items"`
}

// Run calculates every form. Rows are numbered from first; source labels the
// metrics ("json", "xlsx").
func Run[F Form[I], I, T any](op Kind, source string, first int, forms []F, fn func(I, refdata.Provider) (T, error), data refdata.Provider) (Result[T], error) {
	if len(forms) == 0 {
		return Result[T]{}, fmt.Errorf("%w: %w", calc.ErrInvalidInput, ErrNoItems)
	}
	if len(forms) > MaxItems {
		return Result[T]{}, calc.Invalid("batch of %d items exceeds %d", len(forms), MaxItems)
	}
	out := Result[T]{Items: make([]Item[T], 0, len(forms))}
	for i, form := range forms {
		item := Item[T]{Row: first + i}
		res, err := calculate(form, fn, data)
		if err != nil {
			item.Error = err.Error()
			out.Failed++
		} else {
			item.Result = &res
			out.Count++
		}
		metrics.RecordBatchItem(string(op), source, err == nil)
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func calculate[F Form[I], I, T any](form F, fn func(I, refdata.Provider) (T, error), data refdata.Provider) (T, error) {
	in, err := form.Input()
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(in, data)
}

// Decode parses a JSON batch body {"items": [...]} for kind and runs it.
func Decode(kind Kind, body []byte, data refdata.Provider) (any, error) {
	switch kind {
	case KindEndmill:
		return decodeRun[endmill.Request](kind, body, endmill.Calculate, data)
	case KindDrill:
		return decodeRun[drill.Request](kind, body, drill.Calculate, data)
	case KindThread:
		return decodeRun[thread.Request](kind, body, thread.Calculate, data)
	}
	return nil, calc.Invalid("unknown batch kind %q", kind)
}

type payload[F any] struct {
	Items []F `json:"items"`
}

func decodeRun[F Form[I], I, T any](kind Kind, body []byte, fn func(I, refdata.Provider) (T, error), data refdata.Provider) (Result[T], error) {
	var p payload[F]
	if err := json.Unmarshal(body, &p); err != nil {
		return Result[T]{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return Run(kind, "json", 1, p.Items, fn, data)
}

// Evaluate runs a single JSON form of kind.
func Evaluate(kind Kind, form []byte, data refdata.Provider) (any, error) {
	switch kind {
	case KindEndmill:
		return evaluate[endmill.Request](form, endmill.Calculate, data)
	case KindDrill:
		return evaluate[drill.Request](form, drill.Calculate, data)
	case KindThread:
		return evaluate[thread.Request](form, thread.Calculate, data)
	}
	return nil, calc.Invalid("unknown calculator %q", kind)
}

func evaluate[F Form[I], I, T any](form []byte, fn func(I, refdata.Provider) (T, error), data refdata.Provider) (T, error) {
	var f F
	if err := json.Unmarshal(form, &f); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return calculate(f, fn, data)
}
