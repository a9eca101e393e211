package codec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by the names hosts use in option bags
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "-" {
				return ""
			}
			if idx := strings.Index(name, ","); idx != -1 {
				name = name[:idx]
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateOptions checks the `validate` struct tags of opts and reports the
// first violation as a StageConfigure error naming the option.
func ValidateOptions(format string, opts any) error {
	err := structValidator().Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{
			Format:  format,
			Stage:   StageConfigure,
			Message: fmt.Sprintf("%s: %v (must satisfy %s)", fe.Field(), fe.Value(), constraint(fe)),
			Err:     ErrInvalidParameter,
		}
	}
	return Wrap(format, StageConfigure, err)
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// BindOptions decodes a flat option bag (JSON field names, loosely typed
// values) into dst, which must be a pointer to an options struct. Unknown
// keys are rejected.
func BindOptions(format string, bag map[string]any, dst Options) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Squash:           true,
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return Wrap(format, StageConfigure, err)
	}
	if err := dec.Decode(bag); err != nil {
		return &Error{Format: format, Stage: StageConfigure, Message: err.Error(), Err: ErrInvalidParameter}
	}
	return nil
}
