package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/go-playground/validator/v10"
)

// SubmissionInput is the client payload carried in the "data" form field.
// File references are filled in by the intake workflow, never by the client.
type SubmissionInput struct {
	FullName          string  `json:"fullName" validate:"required,min=2,max=255"`
	Email             string  `json:"email" validate:"required,email,max=255"`
	Phone             *string `json:"phone" validate:"omitempty,max=50"`
	ProfessionalTitle string  `json:"professionalTitle" validate:"required,min=2,max=255"`
	Bio               string  `json:"bio" validate:"required,min=10"`

	Degree         *string `json:"degree" validate:"omitempty,max=255"`
	University     *string `json:"university" validate:"omitempty,max=255"`
	GraduationYear *string `json:"graduationYear" validate:"omitempty,max=10"`

	Company  *string `json:"company" validate:"omitempty,max=255"`
	JobTitle *string `json:"jobTitle" validate:"omitempty,max=255"`
	Duration *string `json:"duration" validate:"omitempty,max=100"`

	LinkedinURL    *string `json:"linkedinUrl" validate:"omitempty,max=500"`
	GithubURL      *string `json:"githubUrl" validate:"omitempty,max=500"`
	PortfolioURL   *string `json:"portfolioUrl" validate:"omitempty,max=500"`
	OtherSocialURL *string `json:"otherSocialUrl" validate:"omitempty,max=500"`

	ResumeURL       string  `json:"-" validate:"required"`
	ProfilePhotoURL *string `json:"-"`

	Projects []ProjectInput `json:"projects" validate:"dive"`
}

// ProjectInput is one entry of SubmissionInput.Projects.
type ProjectInput struct {
	Title        string  `json:"title" validate:"required,max=255"`
	Description  string  `json:"description" validate:"required"`
	Technologies *string `json:"technologies" validate:"omitempty,max=500"`
	GithubURL    *string `json:"githubUrl" validate:"omitempty,max=500"`
	DemoURL      *string `json:"demoUrl" validate:"omitempty,max=500"`

	// ScreenshotIndex points into the uploaded projectScreenshots.
	ScreenshotIndex *int `json:"screenshotIndex" validate:"omitempty,min=0"`
}

// ProjectDraft is a validated project waiting for its screenshot reference.
type ProjectDraft struct {
	Project         models.Project
	ScreenshotIndex *int
}

// ValidatedSubmission is the normalized result of Validate.
type ValidatedSubmission struct {
	Submission models.Submission
	Projects   []ProjectDraft
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			// only the workflow-owned references are hidden from JSON
			switch fld.Name {
			case "ResumeURL":
				return "resumeUrl"
			case "ProfilePhotoURL":
				return "profilePhotoUrl"
			}
			return ""
		}
		return name
	})
	return v
}

// DecodeSubmission parses the "data" field. An empty value is treated as an empty object
// so the validator reports every missing field.
func DecodeSubmission(data string) (SubmissionInput, error) {
	var in SubmissionInput
	if strings.TrimSpace(data) == "" {
		return in, nil
	}

	if err := json.Unmarshal([]byte(data), &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return in, errs.NewValidationError([]errs.FieldError{{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be a %s", jsonKind(typeErr.Type)),
			}})
		}
		return in, errs.NewInvalidJSONError("data", err)
	}
	return in, nil
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64, reflect.Int32:
		return "number"
	case reflect.Slice:
		return "list"
	case reflect.Struct:
		return "object"
	}
	return t.Kind().String()
}

// Validate normalizes in and checks every rule. screenshotCount is the number of
// uploaded project screenshots that explicit indexes may refer to.
// On failure the returned error lists every violated field.
func Validate(in SubmissionInput, screenshotCount int) (*ValidatedSubmission, error) {
	normalize(&in)

	var violations []errs.FieldError
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, errs.NewInternalErrorWithCause("validate submission", err)
		}
		for _, fe := range verrs {
			violations = append(violations, errs.FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: violationMessage(fe),
			})
		}
	}

	for i, p := range in.Projects {
		if p.ScreenshotIndex != nil && *p.ScreenshotIndex >= screenshotCount {
			violations = append(violations, errs.FieldError{
				Field:   fmt.Sprintf("projects[%d].screenshotIndex", i),
				Message: "must reference an uploaded screenshot",
			})
		}
	}

	if len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}

	out := &ValidatedSubmission{
		Submission: models.Submission{
			FullName:          in.FullName,
			Email:             in.Email,
			Phone:             in.Phone,
			ProfilePhotoURL:   in.ProfilePhotoURL,
			ProfessionalTitle: in.ProfessionalTitle,
			Bio:               in.Bio,
			Degree:            in.Degree,
			University:        in.University,
			GraduationYear:    in.GraduationYear,
			Company:           in.Company,
			JobTitle:          in.JobTitle,
			Duration:          in.Duration,
			ResumeURL:         in.ResumeURL,
			LinkedinURL:       in.LinkedinURL,
			GithubURL:         in.GithubURL,
			PortfolioURL:      in.PortfolioURL,
			OtherSocialURL:    in.OtherSocialURL,
			Status:            models.StatusPending,
		},
		Projects: make([]ProjectDraft, 0, len(in.Projects)),
	}
	for _, p := range in.Projects {
		out.Projects = append(out.Projects, ProjectDraft{
			Project: models.Project{
				Title:        p.Title,
				Description:  p.Description,
				Technologies: p.Technologies,
				GithubURL:    p.GithubURL,
				DemoURL:      p.DemoURL,
			},
			ScreenshotIndex: p.ScreenshotIndex,
		})
	}
	return out, nil
}

// normalize trims every string and turns empty optional strings into nil.
func normalize(in *SubmissionInput) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.ProfessionalTitle = strings.TrimSpace(in.ProfessionalTitle)
	in.Bio = strings.TrimSpace(in.Bio)
	in.ResumeURL = strings.TrimSpace(in.ResumeURL)

	for _, opt := range []**string{
		&in.Phone, &in.Degree, &in.University, &in.GraduationYear,
		&in.Company, &in.JobTitle, &in.Duration,
		&in.LinkedinURL, &in.GithubURL, &in.PortfolioURL, &in.OtherSocialURL,
		&in.ProfilePhotoURL,
	} {
		*opt = optional(*opt)
	}

	for i := range in.Projects {
		p := &in.Projects[i]
		p.Title = strings.TrimSpace(p.Title)
		p.Description = strings.TrimSpace(p.Description)
		p.Technologies = optional(p.Technologies)
		p.GithubURL = optional(p.GithubURL)
		p.DemoURL = optional(p.DemoURL)
	}
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// fieldPath drops the root struct name: "SubmissionInput.projects[0].title" becomes "projects[0].title".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed the %s rule", fe.Tag())
}
