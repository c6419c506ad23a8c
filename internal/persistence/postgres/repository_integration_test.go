//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/fitprogress/internal/domain"
	"example.com/fitprogress/internal/records"
)

func TestRepositoryDrivesProgressService(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("progress"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	_, err = pool.Exec(ctx,
		`INSERT INTO activities (activity_id, user_id, sport_type, start_time, duration_seconds, distance_meters)
         VALUES ('act-1', 'user-1', 'running', $1, 1800, 5000), ('act-2', 'user-1', 'biking', $2, 3600, 10000)`,
		now.Add(-24*time.Hour), now.Add(-72*time.Hour))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO user_follows (follower_id, following_id) VALUES ('user-1', 'user-2')`)
	require.NoError(t, err)

	repo := NewRepository(pool)
	svc := domain.NewService(repo, domain.WithClock(func() time.Time { return now }))

	first, err := svc.CheckAchievements(ctx, domain.TriggerInput{UserID: "user-1", ActivityID: "act-1"})
	require.NoError(t, err)
	require.NotZero(t, first.AchievementsCount)
	require.NotZero(t, first.PRsCount)

	second, err := svc.CheckAchievements(ctx, domain.TriggerInput{UserID: "user-1", ActivityID: "act-1"})
	require.NoError(t, err)
	require.Zero(t, second.AchievementsCount)
	require.Zero(t, second.PRsCount)

	social, err := repo.SocialCounts(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, social.FollowingCount)

	prs, err := repo.ListPersonalRecords(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, records.OneK, prs[0].RecordType)

	var outboxRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&outboxRows))
	require.Equal(t, first.AchievementsCount+first.PRsCount, outboxRows)

	report, err := svc.Summary(ctx, "user-1", "week")
	require.NoError(t, err)
	require.Equal(t, 2, report.Current.ActivityCount)
	require.Equal(t, 15000.0, report.Current.TotalDistanceMeters)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	migrationsDir := resolvePath(t, "../../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "expected at least one migration .up.sql file")
	sort.Strings(files)

	for _, file := range files {
		contents, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)
		_, execErr := pool.Exec(ctx, string(contents))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
