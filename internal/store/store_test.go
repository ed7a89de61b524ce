package store_test

import (
	"context"
	"testing"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/core/db/migrate"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestDB(t *testing.T) *db.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("coursesynth_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(pgContainer)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migrate.Up(connStr))

	database, err := db.New(ctx, db.Config{DSN: connStr})
	require.NoError(t, err)
	t.Cleanup(database.Close)

	return database
}

func TestUserLoginStreak(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	stores := store.New(database.Pool())

	user := &model.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, stores.Users().Create(ctx, user))

	day1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).Unix()
	streak, err := stores.Users().RecordLogin(ctx, user.ID, day1)
	require.NoError(t, err)
	require.Equal(t, 1, streak)

	// Same day again: unchanged.
	sameDayLater := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC).Unix()
	streak, err = stores.Users().RecordLogin(ctx, user.ID, sameDayLater)
	require.NoError(t, err)
	require.Equal(t, 1, streak)

	// Consecutive day: increments.
	day2 := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC).Unix()
	streak, err = stores.Users().RecordLogin(ctx, user.ID, day2)
	require.NoError(t, err)
	require.Equal(t, 2, streak)

	// Gap of more than a day: resets to 1.
	day5 := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC).Unix()
	streak, err = stores.Users().RecordLogin(ctx, user.ID, day5)
	require.NoError(t, err)
	require.Equal(t, 1, streak)
}

func TestChapterDenseIndexing(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	stores := store.New(database.Pool())

	user := &model.User{Name: "Ada", Email: "ada2@example.com", PasswordHash: "hash"}
	require.NoError(t, stores.Users().Create(ctx, user))

	course := &model.Course{OwnerID: user.ID, Query: "intro to go", TimeHours: 2, Language: "en", Difficulty: "beginner", Status: model.CourseStatusCreating}
	require.NoError(t, stores.Courses().Create(ctx, course))

	for i := 0; i < 3; i++ {
		chapter := &model.Chapter{CourseID: course.ID, Caption: "chapter"}
		require.NoError(t, stores.Chapters().Create(ctx, chapter))
		require.Equal(t, i+1, chapter.Index)
	}

	chapters, err := stores.Chapters().ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	for i, c := range chapters {
		require.Equal(t, i+1, c.Index)
	}
}

// TestChapterCreateConcurrentIsRaceFree guards against the unbounded
// chapter fan-out (internal/orchestrator runs every chapter of a course
// concurrently) computing the same next index twice and one INSERT losing
// to the (course_id, index) uniqueness constraint.
func TestChapterCreateConcurrentIsRaceFree(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	stores := store.New(database.Pool())

	user := &model.User{Name: "Ada", Email: "ada4@example.com", PasswordHash: "hash"}
	require.NoError(t, stores.Users().Create(ctx, user))

	course := &model.Course{OwnerID: user.ID, Query: "intro to go", TimeHours: 2, Language: "en", Difficulty: "beginner", Status: model.CourseStatusCreating}
	require.NoError(t, stores.Courses().Create(ctx, course))

	const fanOut = 8
	errs := make(chan error, fanOut)
	for i := 0; i < fanOut; i++ {
		go func() {
			chapter := &model.Chapter{CourseID: course.ID, Caption: "chapter"}
			errs <- stores.Chapters().Create(ctx, chapter)
		}()
	}
	for i := 0; i < fanOut; i++ {
		require.NoError(t, <-errs)
	}

	chapters, err := stores.Chapters().ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, chapters, fanOut)

	seen := make(map[int]bool, fanOut)
	for _, c := range chapters {
		require.False(t, seen[c.Index], "duplicate chapter index %d", c.Index)
		seen[c.Index] = true
	}
	for i := 1; i <= fanOut; i++ {
		require.True(t, seen[i], "missing dense index %d", i)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	stores := store.New(database.Pool())

	user := &model.User{Name: "Ada", Email: "ada3@example.com", PasswordHash: "hash"}
	require.NoError(t, stores.Users().Create(ctx, user))

	course := &model.Course{OwnerID: user.ID, Query: "q", TimeHours: 1, Language: "en", Difficulty: "easy", Status: model.CourseStatusFinished}
	require.NoError(t, stores.Courses().Create(ctx, course))

	chapter := &model.Chapter{CourseID: course.ID, Caption: "c1"}
	require.NoError(t, stores.Chapters().Create(ctx, chapter))

	require.NoError(t, database.WithTx(ctx, func(tx db.Executor) error {
		return store.New(tx).Users().Delete(ctx, user.ID)
	}))

	_, err := stores.Courses().GetByID(ctx, course.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = stores.Chapters().GetByID(ctx, chapter.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = stores.Users().GetByID(ctx, user.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
