// Package config loads daemon options and the TOML configuration file, and
// watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every `env` struct tag.
const EnvPrefix = "STATUSLED_"

// LoadConfig fills opts, a pointer to a struct, from the TOML file named by
// its Config field and from the environment. Each field names its dotted
// TOML path with a `toml` tag and its variable with an `env` tag; the
// environment wins over the file. Fields whose flag the user set on cmd are
// left alone, so the command line wins over both.
//
// A missing file is not an error. Values of the wrong type are reported
// together and leave their fields unchanged.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: options must be a pointer to a struct, got %T", opts)
	}
	v = v.Elem()

	explicit := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().Visit(func(f *pflag.Flag) { explicit[f.Name] = true })
	}

	tree, err := readTree(v)
	if err != nil {
		return err
	}

	var errs []error
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		if explicit[fieldNameToFlag(sf.Name)] {
			continue
		}
		field := v.Field(i)

		if path := sf.Tag.Get("toml"); path != "" {
			if value := lookup(tree, path); value != nil {
				if err := assign(field, value); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
				}
			}
		}
		if key := sf.Tag.Get("env"); key != "" {
			if value, ok := os.LookupEnv(EnvPrefix + key); ok && value != "" {
				if err := assign(field, value); err != nil {
					errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// readTree decodes the file named by the Config field into a generic tree.
func readTree(v reflect.Value) (map[string]any, error) {
	f := v.FieldByName("Config")
	if !f.IsValid() || f.Kind() != reflect.String || f.String() == "" {
		return nil, nil
	}
	path := f.String()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}
	return tree, nil
}

// fieldNameToFlag converts a struct field name to its CLI flag name, the
// way humacli derives flags: "LedDriver" becomes "led-driver".
func fieldNameToFlag(fieldName string) string {
	var b strings.Builder
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// lookup walks a dotted path through a decoded TOML tree.
func lookup(tree map[string]any, path string) any {
	var cur any = tree
	for part := range strings.SplitSeq(path, ".") {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = table[part]
	}
	return cur
}

// assign stores value in field. value is either a decoded TOML value or a
// raw string from the environment, which is parsed for the field's kind.
func assign(field reflect.Value, value any) error {
	raw, fromEnv := value.(string)

	switch field.Kind() {
	case reflect.String:
		if !fromEnv {
			return fmt.Errorf("expected a string, got %T", value)
		}
		field.SetString(raw)

	case reflect.Bool:
		b, ok := value.(bool)
		if fromEnv {
			var err error
			if b, err = strconv.ParseBool(raw); err != nil {
				return err
			}
		} else if !ok {
			return fmt.Errorf("expected a boolean, got %T", value)
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int64:
		n, ok := value.(int64)
		if fromEnv {
			var err error
			if n, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return err
			}
		} else if !ok {
			return fmt.Errorf("expected an integer, got %T", value)
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("%d out of range", n)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16:
		n, ok := value.(int64)
		if fromEnv {
			var err error
			if n, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return err
			}
		} else if !ok {
			return fmt.Errorf("expected an integer, got %T", value)
		}
		if n < 0 || field.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d out of range", n)
		}
		field.SetUint(uint64(n))

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		var items []string
		if fromEnv {
			for part := range strings.SplitSeq(raw, ",") {
				items = append(items, strings.TrimSpace(part))
			}
		} else {
			arr, ok := value.([]any)
			if !ok {
				return fmt.Errorf("expected an array, got %T", value)
			}
			for _, item := range arr {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("expected an array of strings, got %T element", item)
				}
				items = append(items, s)
			}
		}
		field.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
