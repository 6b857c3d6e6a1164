package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type CustomValidator struct {
	validator *validator.Validate
	messages  map[string]string
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("slot_time", func(fl validator.FieldLevel) bool {
		_, ok := ParseSlotTime(fl.Field().String())
		return ok
	})

	return &CustomValidator{
		validator: v,
		messages:  make(map[string]string),
	}
}

// RegisterEnum adds a string tag accepted when valid reports true.
// message is appended to the field name in formatted errors.
func (cv *CustomValidator) RegisterEnum(tag, message string, valid func(string) bool) error {
	err := cv.validator.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	})
	if err != nil {
		return err
	}
	cv.messages[tag] = message
	return nil
}

// ParseSlotTime accepts HH:MM or HH:MM:SS and returns the HH:MM form
func ParseSlotTime(s string) (string, bool) {
	for _, layout := range []string{timeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(timeLayout), true
		}
	}
	return "", false
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "uuid":
				errors[field] = field + " must be a valid UUID"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "calendar_date":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "slot_time":
				errors[field] = field + " must be a time in HH:MM format"
			default:
				if msg, ok := cv.messages[e.Tag()]; ok {
					errors[field] = field + " " + msg
				} else {
					errors[field] = field + " is invalid"
				}
			}
		}
	}

	return errors
}
