// Package picker asks the user to choose among candidates. Selector is the
// widget boundary; Choose and ChooseOne map the widget's answer back onto
// typed records and turn the terminating key into an error the caller can
// act on.
package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAborted         = errors.New("selection aborted")
	ErrNothingSelected = errors.New("nothing selected")
	ErrNoCandidates    = errors.New("no candidates to select from")
)

// Key is the key that ended a selection session.
type Key int

const (
	Accept Key = iota
	Abort
)

func (k Key) String() string {
	if k == Abort {
		return "abort"
	}
	return "accept"
}

type Request struct {
	// Candidates are single-line labels, one per item.
	Candidates []string
	// Query pre-fills the filter.
	Query string
	// Multi enables the toggle and toggle-all bindings.
	Multi bool
	// Hint is shown above the input.
	Hint string
}

type Result struct {
	// Indices point into Request.Candidates.
	Indices []int
	Key     Key
}

// Selector runs one interactive selection. It returns ok=false without
// blocking when there are no candidates.
type Selector interface {
	Select(ctx context.Context, req Request) (res Result, ok bool, err error)
}

type Options struct {
	Query string
	Multi bool
	Hint  string
}

// Choose presents items through sel and returns the chosen ones in the order
// the selector reported them.
func Choose[T any](ctx context.Context, sel Selector, items []T, label func(T) string, opts Options) ([]T, error) {
	if len(items) == 0 {
		return nil, ErrNoCandidates
	}
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = singleLine(label(item))
	}
	res, ok, err := sel.Select(ctx, Request{
		Candidates: labels,
		Query:      opts.Query,
		Multi:      opts.Multi,
		Hint:       opts.Hint,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCandidates
	}
	if res.Key == Abort {
		return nil, ErrAborted
	}
	if len(res.Indices) == 0 {
		return nil, ErrNothingSelected
	}
	chosen := make([]T, 0, len(res.Indices))
	for _, idx := range res.Indices {
		if idx < 0 || idx >= len(items) {
			return nil, fmt.Errorf("selector returned index %d for %d candidates", idx, len(items))
		}
		chosen = append(chosen, items[idx])
	}
	return chosen, nil
}

// ChooseOne is Choose in single-select mode.
func ChooseOne[T any](ctx context.Context, sel Selector, items []T, label func(T) string, opts Options) (T, error) {
	opts.Multi = false
	var zero T
	chosen, err := Choose(ctx, sel, items, label, opts)
	if err != nil {
		return zero, err
	}
	return chosen[0], nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
