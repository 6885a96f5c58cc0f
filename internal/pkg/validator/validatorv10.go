package validator

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	esTranslations "github.com/go-playground/validator/v10/translations/es"
	"github.com/shandysiswandi/portal/internal/pkg/strcase"
)

var (
	rePhone = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s\.]?[(]?[0-9]{3}[)]?[-\s\.]?[0-9]{4,6}$`)
	reZip   = regexp.MustCompile(`^[0-9]{5}$`)
)

// portal rules and the message shown under the field
var rules = []struct {
	tag string
	re  *regexp.Regexp
	msg string
}{
	{"phone", rePhone, "Ingresa un teléfono válido"},
	{"zipcode", reZip, "El código postal debe tener 5 dígitos"},
}

var ErrTranslatorNotFound = errors.New("translator not found")

type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to Spanish messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	//nolint:errcheck,errchkjson // map[string]string always encodes
	b, _ := json.Marshal(vs)
	return "validation error: " + string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	esLang := es.New()
	trans, ok := ut.New(esLang, esLang).GetTranslator(esLang.Locale())
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := esTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if err := register(validate, trans, rule.tag, rule.re, rule.msg); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

// Validate returns V10ValidationError when a tag fails; any other error,
// such as a non-struct argument, is returned as is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return err
	}

	out := make(V10ValidationError, len(fes))
	for _, fe := range fes {
		key := strcase.ToLowerSnake(fe.Field())
		if _, seen := out[key]; !seen {
			out[key] = fe.Translate(v.translator)
		}
	}

	return out
}

func register(validate *validator.Validate, trans ut.Translator, tag string, re *regexp.Regexp, msg string) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, msg, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return msg
			}
			return s
		},
	)
}
