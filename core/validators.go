package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	clockStrTag   = "clockstr"
	clockStrText  = "must be a clock duration formatted as HH:MM:SS or MM:SS"
	clockStrRegex = regexp.MustCompile(`^\d+(:[0-5]?\d){1,2}$`)

	instantTag  = "instant"
	instantText = "must be an RFC 3339 timestamp, eg. 2024-01-11T16:30:00Z"

	requiredTag  = "required"
	requiredText = "this field is required"

	numberTag  = "number"
	numberText = "must be a whole number"

	oneOfTag  = "oneof"
	oneOfText = "must be one of [{0}]"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) error {
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return errors.Wrap(err, "registering default translations")
	}

	// Use JSON (or query) tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// register custom validators
	if err := validate.RegisterValidation(clockStrTag, clockStrValidation); err != nil {
		return errors.Wrapf(err, "registering %q validation", clockStrTag)
	}
	if err := validate.RegisterValidation(instantTag, instantValidation); err != nil {
		return errors.Wrapf(err, "registering %q validation", instantTag)
	}

	for _, ct := range []struct {
		tag, text string
		override  bool
	}{
		{tag: clockStrTag, text: clockStrText},
		{tag: instantTag, text: instantText},
		{tag: requiredTag, text: requiredText, override: true},
		{tag: numberTag, text: numberText, override: true},
	} {
		if err := RegisterCustomTranslation(validate, translator, ct.tag, ct.text, ct.override); err != nil {
			return err
		}
	}

	err := validate.RegisterTranslation(
		oneOfTag, translator,
		func(t ut.Translator) error { return t.Add(oneOfTag, oneOfText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(oneOfTag, strings.Join(strings.Fields(fe.Param()), ", "))
			return s
		},
	)
	return errors.Wrapf(err, "registering %q translation", oneOfTag)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) error {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	err := validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
	return errors.Wrapf(err, "registering %q translation", tag)
}

// Custom Global Validators

// clockStrValidation only allows colon-delimited clock strings.
func clockStrValidation(fl validator.FieldLevel) bool {
	return clockStrRegex.MatchString(fl.Field().String())
}

// instantValidation only allows RFC 3339 timestamps (fractional seconds are accepted).
func instantValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339Nano, fl.Field().String())
	return err == nil
}
