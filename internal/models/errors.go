package models

import "fmt"

// The analysis core only fails on local computation problems, so none of these
// errors is ever worth retrying.

// InsufficientDataError is returned when a fit has fewer points than it needs
type InsufficientDataError struct {
	Operation string
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s needs at least %d data points, got %d", e.Operation, e.Required, e.Available)
}

func (e *InsufficientDataError) IsTransient() bool {
	return false
}

// InvalidInputError is returned for out-of-domain numeric inputs
type InvalidInputError struct {
	Field   string
	Value   float64
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *InvalidInputError) IsTransient() bool {
	return false
}

// MissingYearError is returned when a year is not part of the dataset
type MissingYearError struct {
	Year int
}

func (e *MissingYearError) Error() string {
	return fmt.Sprintf("no published cost for year %d", e.Year)
}

func (e *MissingYearError) IsTransient() bool {
	return false
}

// MissingRegionError is returned when a year record lacks a region
type MissingRegionError struct {
	Year   int
	Region Region
}

func (e *MissingRegionError) Error() string {
	return fmt.Sprintf("region %s missing for year %d", e.Region, e.Year)
}

func (e *MissingRegionError) IsTransient() bool {
	return false
}

// InvalidShareTableError is returned when breakdown shares do not form a whole
type InvalidShareTableError struct {
	Sum     float64
	Message string
}

func (e *InvalidShareTableError) Error() string {
	return fmt.Sprintf("invalid share table (sum %.6f): %s", e.Sum, e.Message)
}

func (e *InvalidShareTableError) IsTransient() bool {
	return false
}
