package models

import (
	"time"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "Beginner"
	DifficultyIntermediate DifficultyLevel = "Intermediate"
	DifficultyAdvanced     DifficultyLevel = "Advanced"
	DifficultyExpert       DifficultyLevel = "Expert"
)

type ContentType string

const (
	ContentText        ContentType = "Text Content"
	ContentVideo       ContentType = "Video"
	ContentAudio       ContentType = "Audio"
	ContentPDF         ContentType = "pdf"
	ContentInteractive ContentType = "Interactive Content"
	ContentQuiz        ContentType = "Quiz"
	ContentAssignment  ContentType = "Assignment"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "Active"
	EnrollmentCompleted EnrollmentStatus = "Completed"
	EnrollmentDropped   EnrollmentStatus = "Dropped"
)

// Language is a course delivery language
type Language struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null;size:10"`
	Name      string    `json:"name" gorm:"not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (Language) TableName() string {
	return "languages"
}

func (l *Language) GetID() uint { return l.ID }

func (l *Language) OwnerIDs() []uint { return nil }

// Camp is a refugee camp or settlement served by the platform
type Camp struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Location  string    `json:"location" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
}

func (Camp) TableName() string {
	return "camps"
}

func (c *Camp) GetID() uint { return c.ID }

func (c *Camp) OwnerIDs() []uint { return nil }

type CourseCategory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (CourseCategory) TableName() string {
	return "course_categories"
}

func (c *CourseCategory) GetID() uint { return c.ID }

func (c *CourseCategory) OwnerIDs() []uint { return nil }

type Course struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"uniqueIndex;not null;size:255"`
	Description     *string         `json:"description" gorm:"type:text"`
	LanguageID      *uint           `json:"language_id" gorm:"index"`
	InstructorID    uint            `json:"instructor_id" gorm:"not null;index"`
	Requirements    *string         `json:"requirements" gorm:"size:500"`
	CategoryID      *uint           `json:"category_id" gorm:"index"`
	Duration        *string         `json:"duration" gorm:"size:50"`
	DifficultyLevel DifficultyLevel `json:"difficult_level" gorm:"column:difficulty_level;not null;size:20;default:Intermediate"`
	IsActive        bool            `json:"is_active" gorm:"not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Language   *Language       `json:"language,omitempty" gorm:"foreignKey:LanguageID;constraint:OnDelete:SET NULL"`
	Instructor *User           `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
	Category   *CourseCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) GetID() uint { return c.ID }

func (c *Course) OwnerIDs() []uint {
	return []uint{c.InstructorID}
}

type Module struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	CourseID    uint        `json:"course_id" gorm:"not null;uniqueIndex:idx_module_course_order"`
	Order       int         `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_module_course_order"`
	Title       string      `json:"title" gorm:"not null;size:255"`
	Content     *string     `json:"content" gorm:"type:text"`
	ContentType ContentType `json:"content_type" gorm:"not null;size:30"`
	Duration    *string     `json:"duration" gorm:"size:50"`
	IsMandatory bool        `json:"is_mandatory" gorm:"not null"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Module) TableName() string {
	return "modules"
}

func (m *Module) GetID() uint { return m.ID }

func (m *Module) OwnerIDs() []uint {
	if m.Course == nil {
		return nil
	}
	return m.Course.OwnerIDs()
}

type Enrollment struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	UserID     uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID   uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course;index"`
	Status     EnrollmentStatus `json:"status" gorm:"not null;size:20;default:Active"`
	EnrolledAt time.Time        `json:"enrolled_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time        `json:"updated_at"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) GetID() uint { return e.ID }

func (e *Enrollment) OwnerIDs() []uint {
	owners := []uint{e.UserID}
	if e.Course != nil {
		owners = append(owners, e.Course.InstructorID)
	}
	return owners
}

type UserProgress struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	UserID             uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_course"`
	CourseID           uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_progress_user_course;index"`
	CurrentModuleID    *uint      `json:"current_module_id"`
	ProgressPercentage float64    `json:"progress_percentage" gorm:"not null"`
	IsActive           bool       `json:"is_active" gorm:"not null"`
	StartedAt          time.Time  `json:"started_at" gorm:"autoCreateTime"`
	CompletedAt        *time.Time `json:"completed_at"`
	LastAccessed       time.Time  `json:"last_accessed" gorm:"autoUpdateTime"`

	User          *User   `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course        *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	CurrentModule *Module `json:"current_module,omitempty" gorm:"foreignKey:CurrentModuleID;constraint:OnDelete:SET NULL"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

func (p *UserProgress) GetID() uint { return p.ID }

func (p *UserProgress) OwnerIDs() []uint {
	owners := []uint{p.UserID}
	if p.Course != nil {
		owners = append(owners, p.Course.InstructorID)
	}
	return owners
}
