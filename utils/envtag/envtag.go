// Package envtag overrides struct fields from environment variables named
// after the field's struct tag.
package envtag

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Unmarshal sets every tagged field of s from the environment variable
// strings.ToUpper(prefix+tag), if it is set.
// s must be a pointer to a struct. Embedded structs tagged ",squash" are
// walked with the same prefix.
func Unmarshal(tagName string, prefix string, s interface{}) error {
	structVal := reflect.ValueOf(s)

	if structVal.Kind() != reflect.Ptr || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("envtag: expected a pointer to a struct, got %T", s)
	}
	structVal = structVal.Elem()
	typ := structVal.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		v := structVal.Field(i)
		if !v.CanSet() {
			continue
		}

		if tag == ",squash" && field.Type.Kind() == reflect.Struct {
			if err := Unmarshal(tagName, prefix, v.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		name := strings.ToUpper(prefix + tag)
		envVal := os.Getenv(name)
		if envVal == "" {
			continue
		}
		if err := set(v, envVal); err != nil {
			return fmt.Errorf("envtag: invalid value for %s: %w", name, err)
		}
	}
	return nil
}

func set(v reflect.Value, s string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(i)
	}
	// other kinds are left alone
	return nil
}
