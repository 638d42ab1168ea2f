package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/hydration-tracker/internal/api"
	"github.com/dom/hydration-tracker/internal/config"
	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/dom/hydration-tracker/internal/repository/memory"
	repoPostgres "github.com/dom/hydration-tracker/internal/repository/postgres"
	"github.com/dom/hydration-tracker/internal/service"
	"github.com/dom/hydration-tracker/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_hydration"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&repoPostgres.KVEntry{}); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears the key-value table for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	if err := tdb.DB.Exec("TRUNCATE TABLE kv_entries").Error; err != nil {
		t.Logf("warning: failed to truncate kv_entries: %v", err)
	}
}

// NewTestRedis starts a Redis testcontainer and returns its address
func NewTestRedis(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	return addr
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                 "0", // Random port
		Environment:          "test",
		StorageDriver:        config.StorageMemory,
		StorageNamespace:     "test",
		DefaultDailyGoal:     2000,
		ReminderIntervalUnit: time.Millisecond, // Fast reminders for tests
		Location:             time.UTC,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Store    *memory.Store
	Keys     repository.Keys
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
	Clock    *Clock
}

// NewTestServer creates a complete test server backed by an in-memory store. The
// clock starts at TestNow.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithStore(t, memory.NewStore())
}

// NewTestServerWithStore is NewTestServer with a pre-seeded store.
func NewTestServerWithStore(t *testing.T, store *memory.Store) *TestServer {
	t.Helper()

	cfg := TestConfig()
	clock := NewClock(TestNow)

	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(store, hub, cfg, clock.Now)
	services.OnSwitch(hub.UserSwitched)
	if _, err := services.Start(context.Background()); err != nil {
		t.Fatalf("failed to start services: %v", err)
	}

	router := api.NewRouter(services, hub, cfg)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Store:    store,
		Keys:     repository.Keys{Namespace: cfg.StorageNamespace},
		Services: services,
		Hub:      hub,
		Config:   cfg,
		Clock:    clock,
	}

	t.Cleanup(func() {
		server.Close()
		services.Stop()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL
func (ts *TestServer) WebSocketURL() string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return wsURL + "/api/v1/ws"
}

// CurrentUserID returns the id of the server's current user
func (ts *TestServer) CurrentUserID(t *testing.T) string {
	t.Helper()

	user, err := ts.Services.CurrentUser()
	if err != nil {
		t.Fatalf("no current user: %v", err)
	}
	return user.ID
}

// TestServerKeys returns the store keys used by test servers, for seeding
func TestServerKeys() repository.Keys {
	return repository.Keys{Namespace: TestConfig().StorageNamespace}
}
