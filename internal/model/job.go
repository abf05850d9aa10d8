package model

import (
	"net/url"
	"strings"
	"time"
)

const (
	JobKindFullTime   = "FULL_TIME"
	JobKindPartTime   = "PART_TIME"
	JobKindCoop       = "COOP"
	JobKindInternship = "INTERNSHIP"
)

var JobKinds = []string{JobKindFullTime, JobKindPartTime, JobKindCoop, JobKindInternship}

const (
	maxJobTitleLength       = 200
	maxJobDescriptionLength = 10000
)

type Job struct {
	ID          int64     `db:"id" json:"id"`
	EmployerID  int64     `db:"employer_id" json:"employerId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location,omitempty"`
	Kind        string    `db:"kind" json:"kind"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// JobResponse is a job as seen by a caller. Applied is only set for
// authenticated students.
type JobResponse struct {
	Job
	Applied *bool `json:"applied,omitempty"`
}

type JobListResponse struct {
	Items []JobResponse `json:"items"`
	Total int64         `json:"total"`
}

type CreateJobDTO struct {
	Validator

	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Kind        string `json:"kind"`
}

func (dto *CreateJobDTO) Validate() map[string]string {
	errs := map[string]string{}

	title := strings.TrimSpace(dto.Title)
	if title == "" {
		errs["title"] = ErrEmptyField
	} else if len(title) > maxJobTitleLength {
		errs["title"] = ErrInvalidField
	}

	if strings.TrimSpace(dto.Description) == "" {
		errs["description"] = ErrEmptyField
	} else if len(dto.Description) > maxJobDescriptionLength {
		errs["description"] = ErrInvalidField
	}

	if dto.Kind == "" {
		errs["kind"] = ErrEmptyField
	} else if !contains(JobKinds, dto.Kind) {
		errs["kind"] = ErrInvalidField
	}

	return errs
}

type JobListQuery struct {
	Kind   string
	Search string
	Limit  int
	Offset int
}

func ParseJobListQuery(v url.Values) (JobListQuery, map[string]string) {
	q := JobListQuery{
		Kind:   v.Get("kind"),
		Search: strings.TrimSpace(v.Get("q")),
	}
	errs := map[string]string{}

	if q.Kind != "" && !contains(JobKinds, q.Kind) {
		errs["kind"] = ErrInvalidField
	}
	q.Limit, q.Offset = parsePage(v, errs)

	return q, errs
}
