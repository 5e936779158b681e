package models

import "time"

// Status is the review state an admin assigns to a submission.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every accepted status value.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Submission is one client's portfolio request
type Submission struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	// Personal details
	FullName        string  `json:"fullName" gorm:"size:255;not null"`
	Email           string  `json:"email" gorm:"size:255;not null;index"`
	Phone           *string `json:"phone" gorm:"size:50"`
	ProfilePhotoURL *string `json:"profilePhotoUrl" gorm:"column:profile_photo_url;size:500"`

	// About
	ProfessionalTitle string `json:"professionalTitle" gorm:"size:255;not null"`
	Bio               string `json:"bio" gorm:"type:text;not null"`

	// Education
	Degree         *string `json:"degree" gorm:"size:255"`
	University     *string `json:"university" gorm:"size:255"`
	GraduationYear *string `json:"graduationYear" gorm:"size:10"`

	// Work experience
	Company  *string `json:"company" gorm:"size:255"`
	JobTitle *string `json:"jobTitle" gorm:"size:255"`
	Duration *string `json:"duration" gorm:"size:100"`

	// Resume & social links
	ResumeURL      string  `json:"resumeUrl" gorm:"column:resume_url;size:500;not null"`
	LinkedinURL    *string `json:"linkedinUrl" gorm:"column:linkedin_url;size:500"`
	GithubURL      *string `json:"githubUrl" gorm:"column:github_url;size:500"`
	PortfolioURL   *string `json:"portfolioUrl" gorm:"column:portfolio_url;size:500"`
	OtherSocialURL *string `json:"otherSocialUrl" gorm:"column:other_social_url;size:500"`

	Status    Status    `json:"status" gorm:"size:50;not null;default:pending;index"`
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

// SubmissionWithProjects is a submission hydrated with all of its projects.
// It marshals flat: the submission fields plus a "projects" array.
type SubmissionWithProjects struct {
	Submission
	Projects []Project `json:"projects"`
}

// SubmissionStats backs the admin dashboard counters.
type SubmissionStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
}
