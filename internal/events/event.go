package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "elamid-api"
	eventVersion = "1.0"
)

// Event types
const (
	StudentLoggedIn  = "student.logged_in"
	StudentLoggedOut = "student.logged_out"
	ExamSubmitted    = "exam.submitted"
	ExamDeleted      = "exam.deleted"
	StudentDeleted   = "student.deleted"
)

// AllTypes lists every event type the service emits.
var AllTypes = []string{StudentLoggedIn, StudentLoggedOut, ExamSubmitted, ExamDeleted, StudentDeleted}

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type StudentLoginData struct {
	StudentID uint      `json:"studentId"`
	Grade     int       `json:"grade"`
	Replaced  bool      `json:"replaced"`
	At        time.Time `json:"at"`
}

type ExamSubmittedData struct {
	ResultID    uint `json:"resultId"`
	StudentID   uint `json:"studentId"`
	ExamID      uint `json:"examId"`
	Score       int  `json:"score"`
	TotalPoints int  `json:"totalPoints"`
}

type EntityDeletedData struct {
	ID uint `json:"id"`
}
