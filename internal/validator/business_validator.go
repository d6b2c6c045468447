package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mohammedtarek206/elamid/internal/models"
)

var studentCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,16}$`)

// BusinessValidator handles request and business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidationError represents a single field failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewBusinessValidator creates a validator with the portal rules registered
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	// Report json names so messages match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate runs the struct tag rules on s
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuestionCreate checks a new question, including option/answer consistency
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, bv.Validate(req)...)
	errs = append(errs, validateOptions(req.Type, req.Options, req.CorrectAnswer)...)

	return errs
}

// ValidateQuestionUpdate checks an update against the question it modifies
func (bv *BusinessValidator) ValidateQuestionUpdate(req *QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, bv.Validate(req)...)
	if len(errs) > 0 {
		return errs
	}

	qType := existing.Type
	if req.Type != nil {
		qType = *req.Type
	}
	options := []string(existing.Options)
	if req.Options != nil {
		options = req.Options
	}
	answer := existing.CorrectAnswer
	if req.CorrectAnswer != nil {
		answer = *req.CorrectAnswer
	}

	// Changing a question to True/False without options resets them
	if qType == models.TrueFalse && req.Options == nil && existing.Type != models.TrueFalse {
		options = nil
	}

	return append(errs, validateOptions(qType, options, answer)...)
}

// validateOptions enforces the shape of a question's options. An answer index
// beyond the options is rejected on write even though grading tolerates it.
func validateOptions(qType models.QuestionType, options []string, answer string) ValidationErrors {
	var errs ValidationErrors

	switch qType {
	case models.TrueFalse:
		if len(options) != 0 && len(options) != 2 {
			errs = append(errs, ValidationError{
				Field:   "options",
				Message: "true/false questions must have exactly 2 options",
				Value:   len(options),
				Rule:    "business_logic",
			})
		}
	case models.MultipleChoice:
		if len(options) < 2 {
			errs = append(errs, ValidationError{
				Field:   "options",
				Message: "multiple choice questions need at least 2 options",
				Value:   len(options),
				Rule:    "business_logic",
			})
		}
	}

	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "option cannot be empty",
				Rule:    "business_logic",
			})
		}
	}

	limit := len(options)
	if qType == models.TrueFalse && limit == 0 {
		limit = 2
	}
	if idx, err := strconv.Atoi(answer); err == nil && idx >= limit {
		errs = append(errs, ValidationError{
			Field:   "correctAnswer",
			Message: fmt.Sprintf("must be an option index below %d", limit),
			Value:   answer,
			Rule:    "business_logic",
		})
	}

	return errs
}

// ToValidationErrors converts validator errors to ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Grade validation (1-3)
	bv.validate.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return models.Grade(fl.Field().Int()).Valid()
	})

	bv.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.MultipleChoice, models.TrueFalse:
			return true
		}
		return false
	})

	// Option index: a non-negative decimal number without sign or padding
	bv.validate.RegisterValidation("option_index", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" || len(s) > 3 || (len(s) > 1 && s[0] == '0') {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	bv.validate.RegisterValidation("student_code", func(fl validator.FieldLevel) bool {
		return studentCodePattern.MatchString(fl.Field().String())
	})

	// Exam duration validation (1-600 minutes)
	bv.validate.RegisterValidation("exam_duration", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 1 && d <= 600
	})

	bv.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		p := fl.Field().Int()
		return p >= 0 && p <= 100
	})
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "grade":
		return "must be 1, 2 or 3"
	case "question_type":
		return "must be MCQ or True/False"
	case "option_index":
		return "must be the index of an option, e.g. \"0\""
	case "student_code":
		return "must be 4 to 16 upper-case letters or digits"
	case "exam_duration":
		return "must be between 1 and 600 minutes"
	case "points_range":
		return "must be between 0 and 100"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
