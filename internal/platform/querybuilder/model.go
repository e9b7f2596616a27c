package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row insert from the `db` tags of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	builder, err := InsertModels(table, []any{model})
	if err != nil {
		return "", nil, err
	}
	return builder.Suffix(suffix).ToSQL()
}

// InsertModels builds a multi-row insert. Every model must have the same struct type;
// the column list comes from the first one.
func InsertModels[T any](table string, models []T) (*InsertBuilder, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}

	var (
		rowType reflect.Type
		fields  []int
		builder = InsertInto(table)
	)
	for idx, model := range models {
		value, err := structValue(model)
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", idx, err)
		}
		if rowType == nil {
			rowType = value.Type()
			var cols []string
			cols, fields = taggedFields(rowType)
			if len(cols) == 0 {
				return nil, fmt.Errorf("model has no db columns")
			}
			builder.Columns(cols...)
		} else if value.Type() != rowType {
			return nil, fmt.Errorf("model %d: type %s differs from %s", idx, value.Type(), rowType)
		}

		row := make([]any, len(fields))
		for i, field := range fields {
			row[i] = value.Field(field).Interface()
		}
		builder.Values(row...)
	}
	return builder, nil
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be struct, got %s", value.Kind())
	}
	return value, nil
}

// taggedFields lists exported fields with a usable `db` tag, in declaration order.
func taggedFields(typ reflect.Type) ([]string, []int) {
	var (
		cols   []string
		fields []int
	)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, name)
		fields = append(fields, i)
	}
	return cols, fields
}
