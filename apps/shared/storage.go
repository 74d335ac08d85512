package shared

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	"github.com/myschool-rw/myschool/core/visit"
	locksvc "github.com/myschool-rw/myschool/services/locker"
	"github.com/myschool-rw/myschool/storage/database"
	inmemdb "github.com/myschool-rw/myschool/storage/database/inmem"
	sqlxrepos "github.com/myschool-rw/myschool/storage/database/sqlx"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// Stores holds the repositories of the configured storage driver.
type Stores struct {
	Schools  school.Repository
	Students student.Repository
	Visits   visit.Repository

	// DB is the Postgres connection; nil with the memory driver.
	DB *sql.DB

	close func() error
}

// Migrate applies pending migrations. No-op with the memory driver.
func (s Stores) Migrate() error {
	if s.DB == nil {
		return nil
	}
	return database.Migrate(s.DB)
}

func (s Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects to the configured storage. With Postgres, the database and its
// app user are created when missing.
func OpenStores(conf *core.Config) (Stores, error) {
	switch conf.Database.Driver {
	case core.DriverMemory:
		db := inmemdb.Open()
		return Stores{
			Schools:  inmemdb.NewSchoolRepository(db),
			Students: inmemdb.NewStudentRepository(db),
			Visits:   inmemdb.NewVisitRepository(db),
			close:    db.Close,
		}, nil

	case core.DriverPostgres, "":
		if err := database.CreateIfNotExist(conf); err != nil {
			return Stores{}, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Schools:  sqlxrepos.NewSchoolRepository(db),
			Students: sqlxrepos.NewStudentRepository(db),
			Visits:   sqlxrepos.NewVisitRepository(db),
			DB:       db.DB,
			close:    db.Close,
		}, nil
	}
	return Stores{}, errors.Wrap(ErrUnknownDriver, fmt.Sprintf("driver %q", conf.Database.Driver))
}

// NewLocker returns a Redis locker when Redis is configured, else an in-process one.
func NewLocker(ctx context.Context, conf *core.Config, logger core.Logger) (visit.Locker, func() error, error) {
	if conf.Redis.Addr == "" {
		return locksvc.NewLocal(), func() error { return nil }, nil
	}
	client, err := locksvc.NewRedisClient(ctx, conf.Redis)
	if err != nil {
		return nil, nil, err
	}
	return locksvc.NewRedis(client, conf.Redis, logger), client.Close, nil
}

// Services are the domain services built over Stores.
type Services struct {
	Schools  school.Service
	Students student.Service
	Visits   visit.Service
}

func NewServices(conf *core.Config, stores Stores, locker visit.Locker) Services {
	schSvc := school.NewService(stores.Schools)
	stdSvc := student.NewService(stores.Students)
	return Services{
		Schools:  schSvc,
		Students: stdSvc,
		Visits:   visit.NewService(stores.Visits, schSvc, stdSvc, locker, conf.Location()),
	}
}
