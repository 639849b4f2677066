package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var dangerousChars = regexp.MustCompile(`[<>;{}]`)

// SanitizeError reports a rejected input field
type SanitizeError struct {
	Code    string
	Field   string
	Message string
}

func (e *SanitizeError) Error() string {
	return e.Message
}

// Sanitize cleans the named fields of a decoded JSON body in place.
//
// Text fields are trimmed and rejected when they carry any of < > ; { }.
// Fields whose name contains "email" are also lower-cased, fields named
// "otp" must be all digits and "answers" must be a list of
// {question, answer} objects whose values pass the text rule.
// Fields absent from data and non-string values are left untouched.
func Sanitize(data map[string]interface{}, fields ...string) error {
	for _, field := range fields {
		value, ok := data[field]
		if !ok || value == nil {
			continue
		}

		switch {
		case field == "answers":
			if err := sanitizeAnswers(value); err != nil {
				return err
			}
		case field == "otp":
			cleaned, err := sanitizeOTP(field, value)
			if err != nil {
				return err
			}
			data[field] = cleaned
		default:
			text, ok := value.(string)
			if !ok {
				continue
			}
			cleaned, err := sanitizeText(field, text)
			if err != nil {
				return err
			}
			if strings.Contains(field, "email") {
				cleaned = strings.ToLower(cleaned)
			}
			data[field] = cleaned
		}
	}
	return nil
}

func sanitizeText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if dangerousChars.MatchString(trimmed) {
		return "", &SanitizeError{
			Code:    "INVALID_INPUT",
			Field:   field,
			Message: fmt.Sprintf("Field '%s' contains invalid characters", field),
		}
	}
	return trimmed, nil
}

func sanitizeOTP(field string, value interface{}) (string, error) {
	text, _ := value.(string)
	text = strings.TrimSpace(text)
	if text == "" || strings.TrimFunc(text, func(r rune) bool { return r >= '0' && r <= '9' }) != "" {
		return "", &SanitizeError{
			Code:    "INVALID_OTP",
			Field:   field,
			Message: fmt.Sprintf("Field '%s' must contain only digits", field),
		}
	}
	return text, nil
}

func sanitizeAnswers(value interface{}) error {
	formatErr := &SanitizeError{
		Code:    "INVALID_ANSWERS_FORMAT",
		Field:   "answers",
		Message: "Field 'answers' must be a list of {'question', 'answer'} objects.",
	}

	list, ok := value.([]interface{})
	if !ok {
		return formatErr
	}

	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok || len(entry) != 2 {
			return formatErr
		}
		for _, key := range []string{"question", "answer"} {
			raw, present := entry[key]
			if !present {
				return formatErr
			}
			text, ok := raw.(string)
			if !ok {
				return &SanitizeError{
					Code:    "INVALID_ANSWER_TYPE",
					Field:   "answers",
					Message: fmt.Sprintf("Each '%s' in answers must be a string.", key),
				}
			}
			field := fmt.Sprintf("answers[%d][%s]", i, key)
			cleaned, err := sanitizeText(field, text)
			if err != nil {
				return err
			}
			entry[key] = cleaned
		}
	}
	return nil
}
