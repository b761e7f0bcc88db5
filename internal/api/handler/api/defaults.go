package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
)

// StrategyDefaults fills in parameters a request leaves out.
type StrategyDefaults struct {
	Timeframe core.Timeframe
	K1        float64
	K2        float64
}

// resolve applies the defaults to optional request values and builds the
// engine parameters.
func (d StrategyDefaults) resolve(timeframe string, k1, k2 *float64) (core.Timeframe, dualthrust.Params, error) {
	tf := d.Timeframe
	if timeframe != "" {
		parsed, err := core.ParseTimeframe(timeframe)
		if err != nil {
			return "", dualthrust.Params{}, err
		}
		tf = parsed
	}

	c1, c2 := d.K1, d.K2
	if k1 != nil {
		c1 = *k1
	}
	if k2 != nil {
		c2 = *k2
	}

	p, err := dualthrust.ParamsFor(tf, c1, c2)
	if err != nil {
		return "", dualthrust.Params{}, err
	}
	return tf, p, nil
}

// queryFloat reads an optional float query parameter.
func queryFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidConfig, fmt.Errorf("%s: %q is not a number", key, raw))
	}
	return &v, nil
}
