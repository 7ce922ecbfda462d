package internal

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// BindForm copies form values into the exported fields of target tagged with `form`.
// Supported kinds are string, bool and the integer types.
func BindForm(values url.Values, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("form target must be a pointer to a struct")
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := field.Tag.Get("form")
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		if !values.Has(name) {
			continue
		}
		raw := strings.TrimSpace(values.Get(name))
		fv := rv.Field(i)

		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Bool:
			b := raw == "on"
			if !b && raw != "" {
				parsed, err := strconv.ParseBool(raw)
				if err != nil {
					return fmt.Errorf("field %s: %w", name, err)
				}
				b = parsed
			}
			fv.SetBool(b)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			fv.SetInt(n)
		default:
			return fmt.Errorf("field %s: unsupported kind %s", name, fv.Kind())
		}
	}
	return nil
}
