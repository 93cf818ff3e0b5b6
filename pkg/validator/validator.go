package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var nmcUIDPattern = regexp.MustCompile(`^\d{7}$`)

var (
	defaultOnce     sync.Once
	defaultValidate *validator.Validate
)

// Register adds the service's custom tags to v and reports fields by their
// json names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("nmcuid", validateNMCUID); err != nil {
		return err
	}
	return v.RegisterValidation("role", validateRole)
}

func validateNMCUID(fl validator.FieldLevel) bool {
	return nmcUIDPattern.MatchString(fl.Field().String())
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "patient", "doctor", "admin":
		return true
	}
	return false
}

// Default returns a shared validator with the custom tags registered.
func Default() *validator.Validate {
	defaultOnce.Do(func() {
		defaultValidate = validator.New(validator.WithRequiredStructEnabled())
		if err := Register(defaultValidate); err != nil {
			panic(err)
		}
	})
	return defaultValidate
}

// ValidNMCUID reports whether s is a 7-digit NMC registration number.
func ValidNMCUID(s string) bool {
	return Default().Var(s, "nmcuid") == nil
}

var tagMessages = map[string]string{
	"role":   "Invalid role. Must be patient, doctor, or admin",
	"nmcuid": "Invalid NMC UID format. Must be 7 digits",
}

// Message turns a binding error into a client-facing message. Missing
// required fields produce missing, custom tags their own message, other
// failed fields "Invalid <field>", and anything else fallback.
func Message(err error, missing, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return missing
			}
		}
		if len(verrs) > 0 {
			if msg, ok := tagMessages[verrs[0].Tag()]; ok {
				return msg
			}
			return "Invalid " + verrs[0].Field()
		}
	}
	return fallback
}
