package integration

import (
	"context"
	"github.com/coolviki/paywise/config"
	"github.com/coolviki/paywise/pkg/migration"
	"github.com/jmoiron/sqlx"
	"os"
	"path"
	"sync"

	// for integration test, must not be imported in any main.go
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// TestCase ...
type TestCase struct {
	DB   *sqlx.DB
	Conf config.Config
}

var initOnce sync.Once

var globalConf config.Config
var globalDB *sqlx.DB

// NewTestCase ...
func NewTestCase() *TestCase {
	initOnce.Do(func() {
		rootDir := findRootDir()

		conf := config.LoadTestConfig(rootDir)
		migration.MigrateUpForTesting(rootDir, conf.MySQL.DSN())

		db := conf.MySQL.MustConnect()

		globalConf = conf
		globalDB = db
	})

	return &TestCase{
		Conf: globalConf,
		DB:   globalDB,
	}
}

// Truncate empties the tables on one connection with foreign key checks disabled
func (tc *TestCase) Truncate(tables ...string) {
	ctx := context.Background()
	conn, err := tc.DB.Connx(ctx)
	if err != nil {
		panic(err)
	}
	defer func() { _ = conn.Close() }()

	sqlx.MustExecContext(ctx, conn, "SET FOREIGN_KEY_CHECKS = 0")
	for _, table := range tables {
		sqlx.MustExecContext(ctx, conn, "TRUNCATE "+table)
	}
	sqlx.MustExecContext(ctx, conn, "SET FOREIGN_KEY_CHECKS = 1")
}

// TruncateAll empties every catalog table, banks included
func (tc *TestCase) TruncateAll() {
	tc.Truncate(
		"pending_campaigns",
		"pending_card_changes",
		"pending_brand_changes",
		"pending_ecosystem_changes",
		"campaigns",
		"card_ecosystem_benefits",
		"brand_keywords",
		"brands",
		"cards",
		"banks",
	)
}

func findRootDir() string {
	workdir, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	directory := workdir
	for {
		files, err := os.ReadDir(directory)
		if err != nil {
			panic(err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if file.Name() == "go.mod" {
				return directory
			}
		}

		directory = path.Dir(directory)
	}
}
