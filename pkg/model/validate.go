package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateDataset checks row-level constraints (required ids, non-negative
// weights and volumes) and key uniqueness. Raw scores are not
// range-checked.
func ValidateDataset(ds *Dataset) error {
	for i := range ds.Steps {
		if err := validateRow(TableProcessSteps, i, ds.Steps[i]); err != nil {
			return err
		}
	}
	for i := range ds.Metrics {
		if err := validateRow(TableScoringMetrics, i, ds.Metrics[i]); err != nil {
			return err
		}
	}
	for i := range ds.Scores {
		if err := validateRow(TableStepScores, i, ds.Scores[i]); err != nil {
			return err
		}
	}
	for i := range ds.Business {
		if err := validateRow(TableBusinessParams, i, ds.Business[i]); err != nil {
			return err
		}
	}
	for i := range ds.Strategy {
		if err := validateRow(TableStrategyParams, i, ds.Strategy[i]); err != nil {
			return err
		}
	}

	if err := uniqueKeys(TableProcessSteps, len(ds.Steps), func(i int) string { return ds.Steps[i].ID }); err != nil {
		return err
	}
	return uniqueKeys(TableScoringMetrics, len(ds.Metrics), func(i int) string { return ds.Metrics[i].ID })
}

func validateRow(tableName string, i int, row any) error {
	err := validate.Struct(row)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return &Error{Kind: KindInvalidInput, Op: "validate", Table: tableName, Row: i + 1,
			Message: strings.Join(msgs, ", ")}
	}
	return &Error{Kind: KindInvalidInput, Op: "validate", Table: tableName, Row: i + 1, Message: "validation", Err: err}
}

func uniqueKeys(tableName string, n int, key func(int) string) error {
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		k := key(i)
		if first, dup := seen[k]; dup {
			return &Error{Kind: KindInvalidInput, Op: "validate", Table: tableName, Row: i + 1,
				Message: fmt.Sprintf("duplicate key %q (first seen at row %d)", k, first+1)}
		}
		seen[k] = i
	}
	return nil
}
