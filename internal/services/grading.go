package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

// Grade is the outcome of scoring one answer sheet
type Grade struct {
	PointsEarned   float64
	PointsPossible float64
	Score          float64
	Passed         bool
}

func errAnswersFormat(detail string) error {
	return badRequest("INVALID_ANSWERS_FORMAT", "Answers must be a list of objects with only 'question' and 'answer' keys. "+detail)
}

// ParseAnswers decodes an answer sheet, requiring every entry to carry exactly
// a non-empty question and an answer, both strings
func ParseAnswers(raw json.RawMessage) ([]models.SubmittedAnswer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errAnswersFormat("")
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errAnswersFormat("Every entry must be an object.")
	}

	answers := make([]models.SubmittedAnswer, 0, len(entries))
	for i, entry := range entries {
		if len(entry) != 2 {
			return nil, errAnswersFormat(fmt.Sprintf("Error at index %d.", i))
		}
		var answer models.SubmittedAnswer
		if err := decodeString(entry["question"], &answer.Question); err != nil {
			return nil, errAnswersFormat(fmt.Sprintf("Error at index %d.", i))
		}
		if err := decodeString(entry["answer"], &answer.Answer); err != nil {
			return nil, errAnswersFormat(fmt.Sprintf("Error at index %d.", i))
		}
		if strings.TrimSpace(answer.Question) == "" {
			return nil, errAnswersFormat(fmt.Sprintf("Question cannot be empty at index %d.", i))
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func decodeString(raw json.RawMessage, dest *string) error {
	if raw == nil {
		return fmt.Errorf("missing key")
	}
	return json.Unmarshal(raw, dest)
}

// GradeAnswers awards each question's points when the first answer naming it
// matches the correct answer. The score is a percentage of the possible points.
func GradeAnswers(questions []models.Question, answers []models.SubmittedAnswer, passingScore float64) Grade {
	var g Grade
	for i := range questions {
		q := &questions[i]
		g.PointsPossible += q.Points
		for _, a := range answers {
			if q.Identifies(a.Question) {
				if q.Matches(a.Answer) {
					g.PointsEarned += q.Points
				}
				break
			}
		}
	}

	if g.PointsPossible > 0 {
		g.Score = math.Round(g.PointsEarned/g.PointsPossible*10000) / 100
	}
	g.Passed = g.Score >= passingScore
	return g
}
