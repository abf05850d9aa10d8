package model

import "time"

const ApplicationStatusSubmitted = "SUBMITTED"

const maxCoverLetterLength = 5000

type Application struct {
	ID          int64     `db:"id" json:"id"`
	JobID       int64     `db:"job_id" json:"jobId"`
	StudentID   int64     `db:"student_id" json:"studentId"`
	CoverLetter string    `db:"cover_letter" json:"coverLetter,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type ApplyDTO struct {
	Validator

	CoverLetter string `json:"coverLetter"`
}

func (dto *ApplyDTO) Validate() map[string]string {
	errs := map[string]string{}
	if len(dto.CoverLetter) > maxCoverLetterLength {
		errs["coverLetter"] = ErrInvalidField
	}
	return errs
}

type ApplicationListResponse struct {
	Items []Application `json:"items"`
}

const NotificationApplicationCreated = "application.created"

// ApplicationNotification is pushed to the employer owning the job.
type ApplicationNotification struct {
	ApplicationID int64  `json:"applicationId"`
	JobID         int64  `json:"jobId"`
	JobTitle      string `json:"jobTitle"`
	StudentID     int64  `json:"studentId"`
}
