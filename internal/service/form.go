package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PostForm carries raw post input before it is bound to an author and saved.
// GroupID is nil when the author picked no group.
type PostForm struct {
	Text    string `validate:"required"`
	GroupID *int64
}

// FormField describes one form field for rendering: display label and help
// text are presentation metadata only.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	HelpText string `json:"help_text"`
	Required bool   `json:"required"`
}

// PostFormFields returns the rendering metadata of the post form.
func PostFormFields() []FormField {
	return []FormField{
		{Name: "text", Label: "Сообщение", HelpText: "Введите сообщение", Required: true},
		{Name: "group", Label: "Группа", HelpText: "Выберите группу", Required: false},
	}
}

// FieldError reports a single failed form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates the per-field failures of one form submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid form: " + strings.Join(msgs, "; ")
}

var formValidator = validator.New()

// Validate checks the form input. Whitespace-only text counts as empty.
func (f *PostForm) Validate() error {
	var fields []FieldError

	if err := formValidator.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, verr := range verrs {
				if verr.Field() == "Text" {
					fields = append(fields, FieldError{Field: "text", Message: "обязательное поле"})
				}
			}
		} else {
			return err
		}
	}
	if len(fields) == 0 && strings.TrimSpace(f.Text) == "" {
		fields = append(fields, FieldError{Field: "text", Message: "обязательное поле"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
