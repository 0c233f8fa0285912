package service

import (
	"context"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		// 进程内缓存的过期清理协程随缓存对象回收
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

var baseTime = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fixture 基于内存 SQLite 组装完整的审核引擎
type fixture struct {
	db        *gorm.DB
	store     *repository.SubmissionRepository
	users     *repository.UserRepository
	careers   *repository.CareerRepository
	projects  *repository.ProjectRepository
	settings  *Settings
	clock     *testClock
	reviews   *ReviewService
	analytics *AnalyticsService
	listing   *SubmissionService

	admin   model.User
	alice   model.User // mentor
	bob     model.User // mentor
	learner model.User
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Career{},
		&model.Project{},
		&model.Submission{},
		&model.SubmissionReviewLog{},
	))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	f := &fixture{
		db:       db,
		store:    repository.NewSubmissionRepository(db, time.Second),
		users:    repository.NewUserRepository(db, time.Second),
		careers:  repository.NewCareerRepository(db, time.Second),
		projects: repository.NewProjectRepository(db, time.Second),
		settings: NewSettings(config.ReviewConfig{}),
		clock:    &testClock{now: baseTime.Add(48 * time.Hour)},
	}

	f.admin = f.createUser(t, "Ada Admin", "admin@example.com", model.Admin)
	f.alice = f.createUser(t, "Alice", "alice@example.com", model.Mentor)
	f.bob = f.createUser(t, "Bob", "bob@example.com", model.Mentor)
	f.learner = f.createUser(t, "Lena", "lena@example.com", model.Learner)

	projector := NewProjector(f.users, f.careers, f.projects)
	f.reviews = NewReviewService(f.store, f.users, f.careers, projector, nil, f.settings)
	f.reviews.Now = f.clock.Now
	f.analytics = NewAnalyticsService(f.store, f.users, nil)
	f.listing = NewSubmissionService(f.store, f.analytics, projector, f.settings)
	return f
}

func (f *fixture) createUser(t *testing.T, name, email string, role model.UserRole) model.User {
	t.Helper()
	u := model.User{Name: name, Email: email, Role: role}
	require.NoError(t, f.users.Create(context.Background(), &u))
	return u
}

func (f *fixture) seed(t *testing.T, s model.Submission) model.Submission {
	t.Helper()
	if s.LearnerID == 0 {
		s.LearnerID = f.learner.ID
	}
	if s.Title == "" {
		s.Title = "portfolio site"
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = baseTime
	}
	require.NoError(t, f.store.Create(context.Background(), &s))
	return s
}

// seedReviewed 直接写入已审核的记录
func (f *fixture) seedReviewed(t *testing.T, mentor model.User, status model.SubmissionStatus, submitted time.Time, elapsed time.Duration) model.Submission {
	t.Helper()
	reviewedAt := submitted.Add(elapsed)
	return f.seed(t, model.Submission{
		MentorID:    &mentor.ID,
		Status:      status,
		SubmittedAt: submitted,
		ReviewedAt:  &reviewedAt,
		UpdatedAt:   reviewedAt,
	})
}

func (f *fixture) actor(u model.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func statusPtr(s model.SubmissionStatus) *model.SubmissionStatus { return &s }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }
