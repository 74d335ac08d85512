package school

import (
	"context"
	"errors"
	"time"

	"github.com/myschool-rw/myschool/core"
)

var (
	// errors
	ErrNotFound   = errors.New("school not found")
	ErrNameExists = errors.New("a school with this name already exists")
	ErrCodeExists = errors.New("a school with this code already exists")

	NowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		// CheckSchoolUniqueness returns ErrNameExists or ErrCodeExists when another school,
		// excluding `excludedSchools`, already uses `name` or `code` (case-insensitive).
		CheckSchoolUniqueness(ctx context.Context, name, code string, excludedSchools ...School) error
		CreateSchool(ctx context.Context, sch School) (School, error)
		QuerySchools(ctx context.Context) ([]School, error)
		GetSchool(ctx context.Context, filter GetFilter) (School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		// DeleteSchool also removes the school's students and their visits.
		DeleteSchool(ctx context.Context, id int) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name, code string, excludedSchools ...School) error
		Register(ctx context.Context, ns NewSchool) (School, error)
		QueryAll(ctx context.Context) ([]School, error)
		GetByID(ctx context.Context, id int) (School, error)
		GetByName(ctx context.Context, name string) (School, error)
		Update(ctx context.Context, id int, us UpdateSchool) (School, error)
		Delete(ctx context.Context, id int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, name, code string, excludedSchools ...School) error {
	return uniquenessErr(svc.repo.CheckSchoolUniqueness(ctx, name, code, excludedSchools...))
}

// uniquenessErr reports name or code conflicts as field validation errors.
func uniquenessErr(err error) error {
	switch err {
	case ErrNameExists:
		return core.NewFieldValidationError("school_name", err)
	case ErrCodeExists:
		return core.NewFieldValidationError("school_code", err)
	}
	return err
}

func (svc *service) Register(ctx context.Context, ns NewSchool) (School, error) {
	sch, err := svc.repo.CreateSchool(ctx, School{
		Name:      ns.Name,
		Code:      ns.Code,
		IsActive:  true,
		CreatedAt: NowFunc(),
	})
	return sch, uniquenessErr(err)
}

func (svc *service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QuerySchools(ctx)
}

func (svc *service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchool(ctx, GetFilter{ID: id})
}

func (svc *service) GetByName(ctx context.Context, name string) (School, error) {
	name = core.CleanString(name)
	if name == "" {
		return School{}, ErrNotFound
	}
	return svc.repo.GetSchool(ctx, GetFilter{Name: name})
}

func (svc *service) Update(ctx context.Context, id int, us UpdateSchool) (School, error) {
	orig, err := svc.repo.GetSchool(ctx, GetFilter{ID: id})
	if err != nil {
		return School{}, err
	}
	if us.Name != "" {
		orig.Name = us.Name
	}
	if us.Code != "" {
		orig.Code = us.Code
	}
	if us.IsActive != nil {
		orig.IsActive = *us.IsActive
	}
	sch, err := svc.repo.UpdateSchool(ctx, orig)
	return sch, uniquenessErr(err)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteSchool(ctx, id)
}
