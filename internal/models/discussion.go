package models

import "time"

type DiscussionCategory string

const (
	DiscussionGeneral   DiscussionCategory = "General Discussion"
	DiscussionSupport   DiscussionCategory = "Learning Support"
	DiscussionCareer    DiscussionCategory = "Career Advice"
	DiscussionTechnical DiscussionCategory = "Technical Help"
)

// DiscussionStatus shares its values with ApplicationStatus
type DiscussionStatus = ApplicationStatus

type Discussion struct {
	ID        uint               `json:"id" gorm:"primaryKey"`
	CourseID  *uint              `json:"course_id" gorm:"index"`
	AuthorID  uint               `json:"author_id" gorm:"not null;index"`
	Title     string             `json:"title" gorm:"not null;size:255"`
	Category  DiscussionCategory `json:"category" gorm:"not null;size:30"`
	Content   string             `json:"content" gorm:"type:text;not null"`
	Status    DiscussionStatus   `json:"status" gorm:"not null;size:20;default:Submitted"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Author *User   `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Discussion) TableName() string {
	return "discussions"
}

func (d *Discussion) GetID() uint { return d.ID }

func (d *Discussion) OwnerIDs() []uint {
	return []uint{d.AuthorID}
}

type DiscussionReply struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DiscussionID  uint      `json:"discussion_id" gorm:"not null;index"`
	AuthorID      uint      `json:"author_id" gorm:"not null;index"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	ParentReplyID *uint     `json:"parent_reply_id" gorm:"index"`
	IsSolution    bool      `json:"is_solution" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Discussion *Discussion        `json:"discussion,omitempty" gorm:"foreignKey:DiscussionID;constraint:OnDelete:CASCADE"`
	Author     *User              `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Children   []*DiscussionReply `json:"children,omitempty" gorm:"-"`
}

func (DiscussionReply) TableName() string {
	return "discussion_replies"
}

func (r *DiscussionReply) GetID() uint { return r.ID }

func (r *DiscussionReply) OwnerIDs() []uint {
	return []uint{r.AuthorID}
}

// BuildReplyTree nests replies under their parents. Input order is kept among siblings;
// replies whose parent is missing become roots.
func BuildReplyTree(replies []DiscussionReply) []*DiscussionReply {
	nodes := make(map[uint]*DiscussionReply, len(replies))
	ordered := make([]*DiscussionReply, 0, len(replies))
	for i := range replies {
		node := replies[i]
		node.Children = nil
		nodes[node.ID] = &node
		ordered = append(ordered, &node)
	}

	roots := make([]*DiscussionReply, 0)
	for _, node := range ordered {
		if node.ParentReplyID != nil {
			if parent, ok := nodes[*node.ParentReplyID]; ok && parent.ID != node.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
