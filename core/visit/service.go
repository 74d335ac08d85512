package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
)

var (
	// errors
	ErrNotFound              = errors.New("visit not found")
	ErrTenantMismatch        = errors.New("student does not belong to this school")
	ErrInvalidKind           = errors.New("invalid visit type")
	ErrMissingMovementMethod = errors.New("movement method is required: with_car or without_car")
	ErrMissingPlateNumber    = errors.New("plate number is required")
	ErrDuplicateVisit        = errors.New("already recorded today")
	ErrFeatureNotAvailable   = errors.New("car management is only available for SOS schools")
	ErrInvalidDateFormat     = errors.New("invalid date format, use YYYY-MM-DD")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		VisitExists(ctx context.Context, studentID int, kind Kind, date time.Time) (bool, error)
		// CreateVisit assigns IDs in commit order and returns ErrDuplicateVisit
		// when (student, kind, date) is already taken.
		CreateVisit(ctx context.Context, v Visit) (Visit, error)
		// QueryVisits returns matching records by ascending ID.
		QueryVisits(ctx context.Context, filter QueryFilter) ([]Record, error)
		GetVisit(ctx context.Context, filter GetFilter) (Record, error)
		SetAssignedPlate(ctx context.Context, id int64, plate string) (Visit, error)
	}

	// Locker serializes admissions sharing the same key.
	Locker interface {
		Lock(ctx context.Context, key string) (unlock func(), err error)
	}

	Service interface {
		Record(ctx context.Context, nv NewVisit) (Visit, error)
		// Query returns the school's visits of `kind`, on `date` when given, by ascending ID.
		Query(ctx context.Context, schoolName, kind, date string) ([]Record, error)
		ListForAdmin(ctx context.Context, schoolName, kind, date string) (AdminView, error)
		ListCarManagement(ctx context.Context, schoolName, kind, date string) ([]Record, error)
		AssignPlate(ctx context.Context, schoolName string, visitID int64, plate string) (Visit, error)
	}

	service struct {
		repo     Repository
		schools  school.Service
		students student.Service
		locker   Locker
		loc      *time.Location
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schSvc school.Service, stdSvc student.Service, locker Locker, loc *time.Location) Service {
	if loc == nil {
		loc = time.Local
	}
	return &service{
		repo:     repo,
		schools:  schSvc,
		students: stdSvc,
		locker:   locker,
		loc:      loc,
	}
}

// today is computed on the server, never taken from the caller.
func (svc *service) today() time.Time {
	return core.Date(NowFunc().In(svc.loc))
}

func (svc *service) parseDate(date string) (null.Time, error) {
	date = core.CleanString(date)
	if date == "" {
		return null.Time{}, nil
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return null.Time{}, ErrInvalidDateFormat
	}
	return null.TimeFrom(d), nil
}

func lockKey(studentID int, kind Kind, date time.Time) string {
	return fmt.Sprintf("visit:%d:%s:%s", studentID, kind, date.Format(core.DateLayout))
}

func (svc *service) Record(ctx context.Context, nv NewVisit) (Visit, error) {
	sch, err := svc.schools.GetByName(ctx, nv.SchoolName)
	if err != nil {
		return Visit{}, err
	}

	std, err := svc.students.GetByID(ctx, 0 /* any school */, nv.StudentID)
	if err != nil {
		return Visit{}, err
	}
	if !std.VisibleTo(sch.ID) {
		return Visit{}, ErrTenantMismatch
	}

	kind, err := ParseKind(nv.Kind)
	if err != nil {
		return Visit{}, err
	}

	v := Visit{
		StudentID: std.ID,
		Kind:      kind,
		Status:    StatusDone,
	}
	if sch.IsSOS() {
		switch core.CleanString(nv.MovementMethod, true /* lower */) {
		case WithCar:
			plate := core.CleanUpper(nv.PlateNumber)
			if plate == "" {
				return Visit{}, ErrMissingPlateNumber
			}
			v.MovementMethod = null.StringFrom(WithCar)
			v.PlateNumber = null.StringFrom(plate)
		case WithoutCar:
			v.MovementMethod = null.StringFrom(WithoutCar)
		default:
			return Visit{}, ErrMissingMovementMethod
		}
	}

	v.Date = svc.today()
	unlock, err := svc.locker.Lock(ctx, lockKey(v.StudentID, v.Kind, v.Date))
	if err != nil {
		return Visit{}, err
	}
	defer unlock()

	exists, err := svc.repo.VisitExists(ctx, v.StudentID, v.Kind, v.Date)
	if err != nil {
		return Visit{}, err
	}
	if exists {
		return Visit{}, ErrDuplicateVisit
	}
	return svc.repo.CreateVisit(ctx, v)
}

func (svc *service) Query(ctx context.Context, schoolName, kind, date string) ([]Record, error) {
	sch, err := svc.schools.GetByName(ctx, schoolName)
	if err != nil {
		return nil, err
	}
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	d, err := svc.parseDate(date)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryVisits(ctx, QueryFilter{SchoolID: sch.ID, Kind: k, Date: d})
}

func (svc *service) ListForAdmin(ctx context.Context, schoolName, kind, date string) (AdminView, error) {
	recs, err := svc.Query(ctx, schoolName, kind, date)
	if err != nil {
		return AdminView{}, err
	}
	return GroupByClass(recs), nil
}

func (svc *service) ListCarManagement(ctx context.Context, schoolName, kind, date string) ([]Record, error) {
	sch, err := svc.schools.GetByName(ctx, schoolName)
	if err != nil {
		return nil, err
	}
	if !sch.IsSOS() {
		return nil, ErrFeatureNotAvailable
	}
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	d, err := svc.parseDate(date)
	if err != nil {
		return nil, err
	}
	if !d.Valid {
		d = null.TimeFrom(svc.today())
	}
	return svc.repo.QueryVisits(ctx, QueryFilter{SchoolID: sch.ID, Kind: k, Date: d})
}

func (svc *service) AssignPlate(ctx context.Context, schoolName string, visitID int64, plate string) (Visit, error) {
	sch, err := svc.schools.GetByName(ctx, schoolName)
	if err != nil {
		return Visit{}, err
	}
	if !sch.IsSOS() {
		return Visit{}, ErrFeatureNotAvailable
	}
	rec, err := svc.repo.GetVisit(ctx, GetFilter{ID: visitID, SchoolID: sch.ID})
	if err != nil {
		return Visit{}, err
	}
	plate = core.CleanUpper(plate)
	if plate == "" {
		return Visit{}, ErrMissingPlateNumber
	}
	// TODO: decide whether one assigned plate may be shared by different students on the same day.
	return svc.repo.SetAssignedPlate(ctx, rec.ID, plate)
}
