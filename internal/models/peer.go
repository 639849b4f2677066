package models

import "time"

type PeerSessionStatus string

const (
	PeerSessionScheduled PeerSessionStatus = "Scheduled"
	PeerSessionOngoing   PeerSessionStatus = "Ongoing"
	PeerSessionCompleted PeerSessionStatus = "Completed"
	PeerSessionCancelled PeerSessionStatus = "Cancelled"
)

// PeerSession is a peer-learning session stored in the document store
type PeerSession struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Topic           string            `json:"topic,omitempty"`
	CourseID        *uint             `json:"course_id,omitempty"`
	HostID          uint              `json:"host_id"`
	HostRole        UserRole          `json:"role"`
	ScheduledAt     time.Time         `json:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes"`
	MaxParticipants int               `json:"max_participants"`
	MeetingLink     string            `json:"meeting_link,omitempty"`
	Status          PeerSessionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (s *PeerSession) OwnerIDs() []uint {
	return []uint{s.HostID}
}

// PeerParticipant records one user's seat in a peer session
type PeerParticipant struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    uint      `json:"user_id"`
	Role      UserRole  `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (p *PeerParticipant) OwnerIDs() []uint {
	return []uint{p.UserID}
}
