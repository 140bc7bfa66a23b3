package integration

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"photosynthesis-lab/internal/app"
	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/engine"
	pginfra "photosynthesis-lab/internal/infra/postgres"
	pgmigrations "photosynthesis-lab/internal/infra/postgres/migrations"
	infraredis "photosynthesis-lab/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"
)

// keepOrder leaves every list as authored.
type keepOrder struct{}

func (keepOrder) Shuffle(int, func(i, j int)) {}

func TestLabEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	custom := domain.DefaultContent()
	custom.ID = "photosynthesis-short"
	custom.Quiz.MCQ = custom.Quiz.MCQ[:2]
	seedContent(t, ctx, pgURL, domain.DefaultContent(), custom)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pginfra.NewContentLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	contents := infraredis.NewContentRepository(redisClient, loader, 5*time.Minute)
	store := infraredis.NewSessionStore(redisClient, 5*time.Minute, "it-host")
	sched := engine.NewManualScheduler(time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC))
	service := app.NewLabService(store, contents, app.Options{
		Scheduler: sched,
		Shuffler:  keepOrder{},
		Now:       sched.Now,
		Logger:    logger,
	})

	snap, err := service.Open(ctx, custom.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id := snap.WorkspaceID
	if snap.Quiz.TotalQuestions != 7 {
		t.Fatalf("expected 7 questions for the short content, got %d", snap.Quiz.TotalQuestions)
	}

	owner, err := redisClient.Get(ctx, "lab:workspace:"+id).Result()
	if err != nil || owner != "it-host" {
		t.Fatalf("expected liveness key owned by it-host, got %q err=%v", owner, err)
	}
	if n, err := redisClient.Exists(ctx, "lab:content:"+custom.ID).Result(); err != nil || n != 1 {
		t.Fatalf("expected content cached in redis, exists=%d err=%v", n, err)
	}

	apply := func(a domain.Action) domain.LabSnapshot {
		t.Helper()
		s, applied, err := service.Apply(ctx, id, a)
		if err != nil || !applied {
			t.Fatalf("action %s: applied=%v err=%v", a.Name, applied, err)
		}
		return s
	}

	// first answer right, second wrong
	apply(domain.Action{Name: domain.ActionQuizSelectAnswer, Index: custom.Quiz.MCQ[0].CorrectIndex})
	apply(domain.Action{Name: domain.ActionQuizSubmit})
	apply(domain.Action{Name: domain.ActionQuizNext})
	wrong := (custom.Quiz.MCQ[1].CorrectIndex + 1) % len(custom.Quiz.MCQ[1].Options)
	apply(domain.Action{Name: domain.ActionQuizSelectAnswer, Index: wrong})
	apply(domain.Action{Name: domain.ActionQuizSubmit})
	apply(domain.Action{Name: domain.ActionQuizNext})
	for i, p := range custom.Quiz.Matching {
		apply(domain.Action{Name: domain.ActionQuizSetMatchingAnswer, Index: i, Answer: p.Right})
	}
	apply(domain.Action{Name: domain.ActionQuizSubmitMatching})
	snap = apply(domain.Action{Name: domain.ActionQuizFinish})

	if snap.Quiz.Score != 6 || snap.Quiz.Percentage != 86 || snap.Quiz.ResultMessage != engine.ResultExcellent {
		t.Fatalf("unexpected final quiz %+v", snap.Quiz)
	}

	apply(domain.Action{Name: domain.ActionSimulationStart})
	sched.Advance(engine.DefaultRunDuration)
	snap, err = service.Snapshot(ctx, id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Simulation.Running || len(snap.Simulation.Bubbles) == 0 {
		t.Fatalf("expected a finished run with bubbles, got %+v", snap.Simulation)
	}

	if err := service.Close(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "lab:workspace:"+id).Result(); n != 0 {
		t.Fatalf("expected liveness key removed on close")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "lab", "POSTGRES_PASSWORD": "labpass", "POSTGRES_DB": "labdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://lab:labpass@%s:%s/labdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedContent(t *testing.T, ctx context.Context, dsn string, contents ...domain.Content) {
	t.Helper()
	db := pginfra.OpenBun(dsn)
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seeder := pginfra.NewContentSeeder(db)
	if err := seeder.Seed(ctx, contents...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ids, err := seeder.IDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != len(contents) {
		t.Fatalf("expected %d seeded ids, got %v", len(contents), ids)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
