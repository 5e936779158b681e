package models

import "time"

// Project is one portfolio item. It always belongs to exactly one submission.
type Project struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SubmissionID  uint      `json:"submissionId" gorm:"not null;index:idx_project_submission_id"`
	Title         string    `json:"title" gorm:"size:255;not null"`
	Description   string    `json:"description" gorm:"type:text;not null"`
	Technologies  *string   `json:"technologies" gorm:"size:500"`
	GithubURL     *string   `json:"githubUrl" gorm:"column:github_url;size:500"`
	DemoURL       *string   `json:"demoUrl" gorm:"column:demo_url;size:500"`
	ScreenshotURL *string   `json:"screenshotUrl" gorm:"column:screenshot_url;size:500"`
	CreatedAt     time.Time `json:"createdAt" gorm:"not null"`

	Submission *Submission `json:"-" gorm:"foreignKey:SubmissionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
