package monitor

import (
	"errors"
	"net/url"
	"strconv"
)

var ErrQuantileRange = errors.New("quantile must be within (0, 1]")

// StatsParams tune the stats digest.
type StatsParams struct {
	Warnings bool
	Quantile float64
}

func parseBool(name string, values url.Values, result *bool) (err error) {
	boolStr := values.Get(name)
	if boolStr != "" {
		*result, err = strconv.ParseBool(boolStr)
		return err
	}
	return
}

func parseFloat(name string, values url.Values, result *float64) (err error) {
	floatStr := values.Get(name)
	if floatStr != "" {
		*result, err = strconv.ParseFloat(floatStr, 64)
		return err
	}
	return
}

func ParseStatsParams(values url.Values) (params *StatsParams, err error) {
	params = &StatsParams{
		Warnings: true,
		Quantile: 0.95,
	}
	if err = parseBool("warnings", values, &params.Warnings); err != nil {
		return nil, err
	}
	if err = parseFloat("quantile", values, &params.Quantile); err != nil {
		return nil, err
	}
	if params.Quantile <= 0 || params.Quantile > 1 {
		return nil, ErrQuantileRange
	}
	return
}
