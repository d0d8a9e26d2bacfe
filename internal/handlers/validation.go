package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var fieldLabels = map[string]string{
	"Name":             "お名前",
	"Email":            "メールアドレス",
	"Phone":            "電話番号",
	"Subject":          "件名",
	"Message":          "お問い合わせ内容",
	"PreferredContact": "ご希望の連絡方法",
	"PrivacyAgreement": "プライバシーポリシーへの同意",
}

// ParseValidationErrors converts validator errors to user-friendly format
func ParseValidationErrors(err error) []ValidationError {
	var result []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			result = append(result, ValidationError{
				Field:   fieldError.Field(),
				Message: getErrorMessage(fieldError),
			})
		}
	}

	return result
}

// fieldErrorMap keys validation messages by struct field for the page template
func fieldErrorMap(errs []ValidationError) map[string]string {
	m := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, exists := m[e.Field]; !exists {
			m[e.Field] = e.Message
		}
	}
	return m
}

func label(fe validator.FieldError) string {
	if l, ok := fieldLabels[fe.Field()]; ok {
		return l
	}
	return fe.Field()
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "PrivacyAgreement" {
			return "プライバシーポリシーに同意してください"
		}
		return label(fe) + "を入力してください"
	case "email":
		return "メールアドレスの形式が正しくありません"
	case "max":
		return label(fe) + "は" + fe.Param() + "文字以内で入力してください"
	case "oneof":
		return label(fe) + "を選択してください"
	default:
		return label(fe) + "が正しくありません"
	}
}
