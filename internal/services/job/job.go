package job

import (
	"context"
	"strings"
	"time"

	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrAlreadyApplied = errors.New("already applied")
	ErrNotJobOwner    = errors.New("not job owner")
)

type Storage interface {
	CreateJob(ctx context.Context, job *model.Job) (int64, error)
	GetJobByID(ctx context.Context, id int64) (*model.Job, error)
	ListJobs(ctx context.Context, q model.JobListQuery) ([]model.Job, error)
	CountJobs(ctx context.Context, q model.JobListQuery) (int64, error)
	CreateApplication(ctx context.Context, app *model.Application) (int64, error)
	ListApplicationsByJob(ctx context.Context, jobID int64) ([]model.Application, error)
	AppliedJobIDs(ctx context.Context, studentID int64, jobIDs []int64) (map[int64]bool, error)
}

// Notifier pushes realtime events to a user.
type Notifier interface {
	Notify(userID int64, kind string, data any) error
}

type Service struct {
	storage  Storage
	notifier Notifier
	now      func() time.Time
}

func New(storage Storage, notifier Notifier) *Service {
	log = *logger.Log
	log = log.With().Str("name", "job-service").Logger()

	return &Service{storage: storage, notifier: notifier, now: time.Now}
}

// List returns a page of jobs. viewer is nil for anonymous callers; only
// students get the applied flag.
func (s *Service) List(ctx context.Context, viewer *model.UserClaim, q model.JobListQuery) (*model.JobListResponse, error) {
	jobs, err := s.storage.ListJobs(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	total, err := s.storage.CountJobs(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "count jobs")
	}

	items, err := s.personalize(ctx, viewer, jobs)
	if err != nil {
		return nil, err
	}

	return &model.JobListResponse{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, viewer *model.UserClaim, id int64) (*model.JobResponse, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.personalize(ctx, viewer, []model.Job{*job})
	if err != nil {
		return nil, err
	}

	return &items[0], nil
}

func (s *Service) personalize(ctx context.Context, viewer *model.UserClaim, jobs []model.Job) ([]model.JobResponse, error) {
	items := make([]model.JobResponse, len(jobs))
	for i, j := range jobs {
		items[i] = model.JobResponse{Job: j}
	}

	if viewer == nil || viewer.Role != model.RoleStudent || len(jobs) == 0 {
		return items, nil
	}

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}

	applied, err := s.storage.AppliedJobIDs(ctx, viewer.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "applied job ids")
	}

	for i := range items {
		v := applied[items[i].ID]
		items[i].Applied = &v
	}

	return items, nil
}

func (s *Service) Create(ctx context.Context, employerID int64, dto model.CreateJobDTO) (*model.Job, error) {
	job := &model.Job{
		EmployerID:  employerID,
		Title:       strings.TrimSpace(dto.Title),
		Description: dto.Description,
		Location:    strings.TrimSpace(dto.Location),
		Kind:        dto.Kind,
		CreatedAt:   s.now().UTC(),
	}

	id, err := s.storage.CreateJob(ctx, job)
	if err != nil {
		return nil, errors.Wrap(err, "create job")
	}
	job.ID = id

	return job, nil
}

func (s *Service) Apply(ctx context.Context, studentID, jobID int64, dto model.ApplyDTO) (*model.Application, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	app := &model.Application{
		JobID:       job.ID,
		StudentID:   studentID,
		CoverLetter: strings.TrimSpace(dto.CoverLetter),
		Status:      model.ApplicationStatusSubmitted,
		CreatedAt:   s.now().UTC(),
	}

	id, err := s.storage.CreateApplication(ctx, app)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAlreadyApplied
		}
		return nil, errors.Wrap(err, "create application")
	}
	app.ID = id

	if s.notifier != nil {
		err := s.notifier.Notify(job.EmployerID, model.NotificationApplicationCreated, model.ApplicationNotification{
			ApplicationID: app.ID,
			JobID:         job.ID,
			JobTitle:      job.Title,
			StudentID:     studentID,
		})
		if err != nil {
			log.Warn().Err(err).Int64("jobId", job.ID).Msg("Failed to notify employer")
		}
	}

	return app, nil
}

// ListApplications is limited to the job owner and admins.
func (s *Service) ListApplications(ctx context.Context, requester model.UserClaim, jobID int64) ([]model.Application, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if requester.Role != model.RoleAdmin && job.EmployerID != requester.ID {
		return nil, ErrNotJobOwner
	}

	apps, err := s.storage.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "list applications")
	}

	return apps, nil
}

func (s *Service) getJob(ctx context.Context, id int64) (*model.Job, error) {
	job, err := s.storage.GetJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, errors.Wrap(err, "get job")
	}
	return job, nil
}
