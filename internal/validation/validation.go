// Package validation builds struct validators with English error messages.
package validation

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator validates structs and renders failures as readable English.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New returns a Validator that reports fields by the name found in tagName
// ("mapstructure" for configuration, "json" for imported files).
// rootName is stripped from error namespaces.
func New(tagName, rootName string) (*Validator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("file", isFileReadable); err != nil {
		return nil, fmt.Errorf("failed to register file validation: %w", err)
	}
	if err := validate.RegisterTranslation("file", trans, func(ut ut.Translator) error {
		return ut.Add("file", "{0} must be an existing and readable file", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("file", strings.TrimPrefix(fe.Namespace(), rootName+"."))
		return t
	}); err != nil {
		return nil, fmt.Errorf("failed to register file translation: %w", err)
	}

	return &Validator{
		validate:   validate,
		translator: trans,
	}, nil
}

// Struct validates s and joins every translated failure into a single error.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	errorMsgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		errorMsgs = append(errorMsgs, e.Translate(v.translator))
	}
	return fmt.Errorf("%s", strings.Join(errorMsgs, ", "))
}

func isFileReadable(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	// Check if the owner has read permission
	return info.Mode().Perm()&(1<<(uint(7))) != 0
}
