package postgres

import (
	"context"

	"github.com/Heidric/workify/internal/model"
	"github.com/huandu/go-sqlbuilder"
)

var (
	jobColumns         = []string{"id", "employer_id", "title", "description", "location", "kind", "created_at"}
	applicationColumns = []string{"id", "job_id", "student_id", "cover_letter", "status", "created_at"}
)

func (s *Storage) CreateJob(ctx context.Context, job *model.Job) (int64, error) {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("job").
		Cols("employer_id", "title", "description", "location", "kind", "created_at").
		Values(job.EmployerID, job.Title, job.Description, job.Location, job.Kind, job.CreatedAt)

	return s.insertReturningID(ctx, ib, "create job")
}

func (s *Storage) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(jobColumns...).
		From("job").
		Where(sb.Equal("id", id))

	var job model.Job
	if err := s.get(ctx, &job, sb, "get job by ID"); err != nil {
		return nil, err
	}
	return &job, nil
}

func applyJobFilter(sb *sqlbuilder.SelectBuilder, q model.JobListQuery) {
	if q.Kind != "" {
		sb.Where(sb.Equal("kind", q.Kind))
	}
	if q.Search != "" {
		sb.Where(sb.ILike("title", "%"+q.Search+"%"))
	}
}

func (s *Storage) ListJobs(ctx context.Context, q model.JobListQuery) ([]model.Job, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(jobColumns...).From("job")
	applyJobFilter(sb, q)
	sb.OrderBy("created_at DESC", "id DESC").Limit(q.Limit).Offset(q.Offset)

	jobs := []model.Job{}
	if err := s.selectAll(ctx, &jobs, sb, "list jobs"); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *Storage) CountJobs(ctx context.Context, q model.JobListQuery) (int64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COUNT(1)").From("job")
	applyJobFilter(sb, q)

	var total int64
	if err := s.get(ctx, &total, sb, "count jobs"); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Storage) CreateApplication(ctx context.Context, app *model.Application) (int64, error) {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("application").
		Cols("job_id", "student_id", "cover_letter", "status", "created_at").
		Values(app.JobID, app.StudentID, app.CoverLetter, app.Status, app.CreatedAt)

	return s.insertReturningID(ctx, ib, "create application")
}

func (s *Storage) ListApplicationsByJob(ctx context.Context, jobID int64) ([]model.Application, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(applicationColumns...).
		From("application").
		Where(sb.Equal("job_id", jobID)).
		OrderBy("created_at")

	apps := []model.Application{}
	if err := s.selectAll(ctx, &apps, sb, "list applications"); err != nil {
		return nil, err
	}
	return apps, nil
}

// AppliedJobIDs returns the subset of jobIDs the student has applied to.
func (s *Storage) AppliedJobIDs(ctx context.Context, studentID int64, jobIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("job_id").
		From("application").
		Where(
			sb.Equal("student_id", studentID),
			sb.In("job_id", sqlbuilder.Flatten(jobIDs)...),
		)

	var ids []int64
	if err := s.selectAll(ctx, &ids, sb, "applied job ids"); err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
