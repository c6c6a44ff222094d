package model

// Evaluation is users/{owner}/groups/{gid}/evaluations/{id}.
type Evaluation struct {
	ID        string            `json:"id"`
	Timestamp Timestamp         `json:"timestamp"`
	Students  []EvaluationScore `json:"students"`
}

func (e *Evaluation) SetID(id string) { e.ID = id }

// EvaluationScore is one student's entry in an evaluation.
type EvaluationScore struct {
	ID    string `json:"id"`
	Score Text   `json:"score"`
}

// ScoreFor returns the score recorded for uid and whether the student is
// listed in the evaluation at all.
func (e Evaluation) ScoreFor(uid string) (Text, bool) {
	for _, s := range e.Students {
		if s.ID == uid {
			return s.Score, true
		}
	}
	return "", false
}

// NoScore is displayed for a listed student without a score.
const NoScore = "-"

// EvaluationRow is one dated score line for the signed-in student.
type EvaluationRow struct {
	EvaluationID string    `json:"evaluationId"`
	Date         string    `json:"date"`
	Timestamp    Timestamp `json:"timestamp"`
	Score        string    `json:"score"`
}
