package estimator

import "errors"

var (
	ErrInvalidPeriod     = errors.New("calculation period must be greater than zero")
	ErrInvalidEfficiency = errors.New("irrigation efficiency must be greater than zero")
	ErrInvalidFarmCount  = errors.New("number of farms must be greater than zero")
)
