package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// EnvFeeder reads environment variables named PREFIX_<env tag>. Nested
// structs are walked; only fields with an `env` tag are set.
type EnvFeeder struct {
	Prefix string
}

// NewEnvFeeder creates a new EnvFeeder with the given variable prefix
func NewEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

// Feed reads environment variables and populates the provided structure
func (f EnvFeeder) Feed(structure interface{}) error {
	if f.Prefix == "" {
		return ErrEnvEmptyPrefix
	}

	inputType := reflect.TypeOf(structure)
	if inputType == nil || inputType.Kind() != reflect.Pointer || inputType.Elem().Kind() != reflect.Struct {
		return ErrEnvInvalidStructure
	}
	if reflect.ValueOf(structure).IsNil() {
		return ErrEnvInvalidStructure
	}

	return f.processStructFields(reflect.ValueOf(structure).Elem())
}

func (f EnvFeeder) processStructFields(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)
		if !fieldType.IsExported() {
			continue
		}

		if err := f.processField(field, &fieldType); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

func (f EnvFeeder) processField(field reflect.Value, fieldType *reflect.StructField) error {
	switch field.Kind() {
	case reflect.Struct:
		return f.processStructFields(field)
	case reflect.Pointer:
		if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
			return f.processStructFields(field.Elem())
		}
	default:
		if envTag, exists := fieldType.Tag.Lookup("env"); exists {
			return f.setFieldFromEnv(field, envTag)
		}
	}
	return nil
}

func (f EnvFeeder) setFieldFromEnv(field reflect.Value, envTag string) error {
	envName := strings.ToUpper(f.Prefix) + "_" + strings.ToUpper(envTag)

	envValue, ok := os.LookupEnv(envName)
	if !ok || envValue == "" {
		return nil
	}

	convertedValue, err := cast.FromType(envValue, field.Type())
	if err != nil {
		return fmt.Errorf("cannot convert %s to type %v: %w", envName, field.Type(), err)
	}
	field.Set(reflect.ValueOf(convertedValue).Convert(field.Type()))
	return nil
}
