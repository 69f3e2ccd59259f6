package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

var (
	once     sync.Once
	validate *govalidator.Validate
	// trans is the singleton English translator for validation errors.
	trans ut.Translator
)

// tagNames are the struct tags tried, in order, for field names in messages.
var tagNames = []string{"csv", "env", "yaml"}

// Setup builds the shared validator with English translations and the
// custom "termcode" rule. Safe to call more than once.
func Setup() {
	once.Do(func() {
		v := govalidator.New(govalidator.WithRequiredStructEnabled())

		// Use the csv/env/yaml tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range tagNames {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation("termcode", func(fl govalidator.FieldLevel) bool {
			return model.TermCode(fl.Field().String()).Valid()
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterTranslation("termcode", trans,
			func(ut ut.Translator) error {
				return ut.Add("termcode", "{0} must be a term code like B17Q", true)
			},
			func(ut ut.Translator, fe govalidator.FieldError) string {
				t, _ := ut.T("termcode", fe.Field())
				return t
			},
		)

		validate = v
	})
}

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	Setup()
	return validate.Struct(s)
}

// TranslateErrors takes a validation error and returns a map of field name
// to human-readable message. If the error is not a validation error, it
// returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Describe flattens a validation error into one sorted line.
func Describe(err error) string {
	fields := TranslateErrors(err)
	msgs := make([]string, 0, len(fields))
	for _, msg := range fields {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// Check validates s and wraps any failure in a readable error.
func Check(s interface{}) error {
	if err := Struct(s); err != nil {
		return fmt.Errorf("validation failed: %s", Describe(err))
	}
	return nil
}
