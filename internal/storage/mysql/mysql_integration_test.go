//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/devpablofiz/Hotelier/internal/domain"
	mysqlstore "github.com/devpablofiz/Hotelier/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func TestUserStore_MySQL(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotelier",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "hotelier")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	store := mysqlstore.New(db)
	ctx := context.Background()

	if v, err := store.Register(ctx, "alice", "secret"); err != nil || v != domain.RegisterOK {
		t.Fatalf("Register: v=%v err=%v", v, err)
	}
	if v, err := store.Register(ctx, "alice", "other"); err != nil || v != domain.RegisterAlreadyExists {
		t.Fatalf("duplicate Register: v=%v err=%v", v, err)
	}

	if v, err := store.Validate(ctx, "alice", "secret"); err != nil || v != domain.LoginOK {
		t.Fatalf("Validate ok: v=%v err=%v", v, err)
	}
	if v, err := store.Validate(ctx, "alice", "nope"); err != nil || v != domain.LoginBadPassword {
		t.Fatalf("Validate bad password: v=%v err=%v", v, err)
	}
	if v, err := store.Validate(ctx, "bob", "x"); err != nil || v != domain.LoginUnknownUser {
		t.Fatalf("Validate unknown: v=%v err=%v", v, err)
	}

	for i := 0; i < 5; i++ {
		if err := store.IncrementReviewCount(ctx, "alice"); err != nil {
			t.Fatalf("IncrementReviewCount: %v", err)
		}
	}
	if n, err := store.ReviewCount(ctx, "alice"); err != nil || n != 5 {
		t.Fatalf("ReviewCount = %d, err=%v", n, err)
	}

	if err := store.IncrementReviewCount(ctx, "ghost"); err != domain.ErrNotFound {
		t.Fatalf("increment for missing user: %v", err)
	}
}
