package taskregistry_test

import (
	"context"
	"testing"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/core/db/migrate"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/taskregistry"
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

// TestCancelIsObservableAcrossRegistryInstances guards against a regression
// to in-process-only cancel state: the API server and the worker each
// construct their own *Registry in separate OS processes, so a cancel must
// be visible through a second, independently-constructed Registry reading
// the same row, not just through the Registry instance that set it.
func TestCancelIsObservableAcrossRegistryInstances(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	serverSide := taskregistry.New(database.Pool())
	workerSide := taskregistry.New(database.Pool())

	userID, courseID := seedUserAndCourse(t, database, ctx)

	task, err := serverSide.Create(ctx, model.CourseCreationConfig{UserID: userID, CourseID: courseID})
	require.NoError(t, err)

	require.False(t, workerSide.IsCancelled(ctx, task.ID))

	require.NoError(t, serverSide.Cancel(ctx, task.ID))

	require.True(t, workerSide.IsCancelled(ctx, task.ID))
	require.False(t, workerSide.IsCancelled(ctx, "does-not-exist"))
}

func seedUserAndCourse(t *testing.T, database *db.DB, ctx context.Context) (userID, courseID int64) {
	err := database.Pool().QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash) VALUES ('Ada', 'ada@example.com', 'hash') RETURNING id`,
	).Scan(&userID)
	require.NoError(t, err)

	err = database.Pool().QueryRow(ctx, `
		INSERT INTO courses (owner_id, query, time_hours, language, difficulty, status)
		VALUES ($1, 'q', 1, 'en', 'beginner', 'creating') RETURNING id`,
		userID,
	).Scan(&courseID)
	require.NoError(t, err)

	return userID, courseID
}

func TestAppendActivityTrimsToCap(t *testing.T) {
	task := &model.Task{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < model.MaxActivityLogEntries+5; i++ {
		task.AppendActivity("step", "message", base.Add(time.Duration(i)*time.Minute))
	}

	require.Len(t, task.Activity, model.MaxActivityLogEntries)
	// The oldest 5 entries should have been dropped, keeping the tail.
	require.Equal(t, base.Add(5*time.Minute), task.Activity[0].At)
}
