package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// DecodeTag is the struct tag naming the parameter a field is decoded from.
const DecodeTag = "param"

var validate = validator.New()

// Decode copies the instance's values into the struct pointed to by out and
// validates it with its `validate` tags. Fields are matched by their `param`
// tag. time.Duration fields accept time parameters in seconds.
//
//	type forwardInput struct {
//		Port int    `param:"port" validate:"min=1,max=65535"`
//		Bind string `param:"bind" validate:"required,ip"`
//	}
func (i *Instance) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          DecodeTag,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			sizeStringHook,
		),
		Result: out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(i.values); err != nil {
		return fmt.Errorf("failed to decode %s parameters: %w", i.schema.Type, err)
	}

	if err := validate.Struct(out); err != nil {
		return NewValidationError(i.schema.Type, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHook turns numeric seconds into a time.Duration.
func secondsToDurationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return Seconds(v), nil
	case int:
		return Seconds(float64(v)), nil
	case int64:
		return Seconds(float64(v)), nil
	case string:
		return Seconds(ParseDuration(v)), nil
	default:
		return data, nil
	}
}

// sizeStringHook lets string defaults such as "8m" fill integer fields.
func sizeStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return ParseSize(s), nil
	default:
		return data, nil
	}
}
