package validator

import (
	"testing"

	"github.com/mohammedtarek206/elamid/internal/models"
)

func strPtr(s string) *string { return &s }

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateStudentCreate(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name      string
		req       StudentCreateRequest
		wantField string
	}{
		{name: "valid", req: StudentCreateRequest{Name: "Ali", Grade: models.GradeFirst}},
		{name: "valid with code", req: StudentCreateRequest{Name: "Ali", Grade: models.GradeThird, Code: strPtr("ABC123")}},
		{name: "missing name", req: StudentCreateRequest{Grade: models.GradeFirst}, wantField: "name"},
		{name: "grade out of range", req: StudentCreateRequest{Name: "Ali", Grade: 4}, wantField: "grade"},
		{name: "lower-case code", req: StudentCreateRequest{Name: "Ali", Grade: 1, Code: strPtr("abc123")}, wantField: "code"},
		{name: "short code", req: StudentCreateRequest{Name: "Ali", Grade: 1, Code: strPtr("AB")}, wantField: "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.Validate(&tt.req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() = %v, want no errors", errs)
				}
				return
			}
			if !hasField(errs, tt.wantField) {
				t.Errorf("Validate() = %v, want error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidateQuestionCreate(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name      string
		req       QuestionCreateRequest
		wantField string
	}{
		{
			name: "mcq",
			req:  QuestionCreateRequest{Text: "2+2?", Type: models.MultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "1"},
		},
		{
			name: "true/false without options",
			req:  QuestionCreateRequest{Text: "sky is blue", Type: models.TrueFalse, CorrectAnswer: "0"},
		},
		{
			name:      "true/false with three options",
			req:       QuestionCreateRequest{Text: "t", Type: models.TrueFalse, Options: []string{"a", "b", "c"}, CorrectAnswer: "0"},
			wantField: "options",
		},
		{
			name:      "answer out of range",
			req:       QuestionCreateRequest{Text: "t", Type: models.MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "2"},
			wantField: "correctAnswer",
		},
		{
			name:      "answer is option text",
			req:       QuestionCreateRequest{Text: "t", Type: models.MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "b"},
			wantField: "correctAnswer",
		},
		{
			name:      "padded index",
			req:       QuestionCreateRequest{Text: "t", Type: models.MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "01"},
			wantField: "correctAnswer",
		},
		{
			name:      "unknown type",
			req:       QuestionCreateRequest{Text: "t", Type: "Essay", Options: []string{"a", "b"}, CorrectAnswer: "0"},
			wantField: "type",
		},
		{
			name:      "empty option",
			req:       QuestionCreateRequest{Text: "t", Type: models.MultipleChoice, Options: []string{"a", " "}, CorrectAnswer: "0"},
			wantField: "options[1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateQuestionCreate(&tt.req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("ValidateQuestionCreate() = %v, want no errors", errs)
				}
				return
			}
			if !hasField(errs, tt.wantField) {
				t.Errorf("ValidateQuestionCreate() = %v, want error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidateQuestionUpdate(t *testing.T) {
	bv := NewBusinessValidator()
	existing := &models.Question{Type: models.MultipleChoice, Options: []string{"a", "b", "c"}, CorrectAnswer: "2"}

	if errs := bv.ValidateQuestionUpdate(&QuestionUpdateRequest{Text: strPtr("new text")}, existing); len(errs) != 0 {
		t.Errorf("text-only update: %v", errs)
	}
	if errs := bv.ValidateQuestionUpdate(&QuestionUpdateRequest{Options: []string{"a", "b"}}, existing); !hasField(errs, "correctAnswer") {
		t.Errorf("shrinking options below the answer index should fail, got %v", errs)
	}
	tf := models.TrueFalse
	if errs := bv.ValidateQuestionUpdate(&QuestionUpdateRequest{Type: &tf, CorrectAnswer: strPtr("1")}, existing); len(errs) != 0 {
		t.Errorf("switch to true/false: %v", errs)
	}
}

func TestValidateSubmitNeverRejectsAnswers(t *testing.T) {
	bv := NewBusinessValidator()
	req := SubmitExamRequest{Answers: []SubmittedAnswer{
		{QuestionID: 0, SelectedAnswer: strPtr("not-an-index")},
		{QuestionID: 7},
	}}
	if errs := bv.Validate(&req); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{{Field: "grade", Message: "must be 1, 2 or 3"}}
	if got := errs.Error(); got != "validation failed: grade must be 1, 2 or 3" {
		t.Errorf("Error() = %q", got)
	}
	errs = append(errs, ValidationError{Field: "name", Message: "is required"})
	if got := errs.Error(); got != "validation failed: 2 field errors" {
		t.Errorf("Error() = %q", got)
	}
}
