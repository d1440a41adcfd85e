package migration

import (
	"errors"
	"fmt"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"path"
	"strconv"
	"strings"
)

const migrationsDir = "migrations"

// sourceDSN prefixes dsn for golang-migrate, the migration files contain several statements each
func sourceDSN(dsn string) string {
	if !strings.Contains(dsn, "multiStatements=") {
		if strings.Contains(dsn, "?") {
			if !strings.HasSuffix(dsn, "?") {
				dsn += "&"
			}
		} else {
			dsn += "?"
		}
		dsn += "multiStatements=true"
	}
	return "mysql://" + dsn
}

func newMigrate(rootDir string, dsn string) *migrate.Migrate {
	m, err := migrate.New("file://"+path.Join(rootDir, migrationsDir), sourceDSN(dsn))
	if err != nil {
		panic(err)
	}
	return m
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// MigrateCommand returns the cobra command for migrating up, down, to a forced version or printing the version
func MigrateCommand(dsn string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "migrate the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "apply all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newMigrate(".", dsn)
			return ignoreNoChange(m.Up())
		},
	}

	downCmd := &cobra.Command{
		Use:   "down [N]",
		Short: "apply N down migrations, default 1",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) > 0 {
				var err error
				n, err = strconv.Atoi(args[0])
				if err != nil {
					return err
				}
			}
			m := newMigrate(".", dsn)
			return ignoreNoChange(m.Steps(-n))
		},
	}

	forceCmd := &cobra.Command{
		Use:   "force VERSION",
		Short: "set the version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			m := newMigrate(".", dsn)
			return m.Force(version)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newMigrate(".", dsn)
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("Version: none")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("Version:", version, "Dirty:", dirty)
			return nil
		},
	}

	rootCmd.AddCommand(upCmd, downCmd, forceCmd, versionCmd)
	return rootCmd
}

// MigrateUpForTesting drops everything then migrates up from rootDir/migrations
func MigrateUpForTesting(rootDir string, dsn string) {
	m := newMigrate(rootDir, dsn)
	if err := m.Drop(); err != nil {
		panic(err)
	}

	m = newMigrate(rootDir, dsn)
	if err := ignoreNoChange(m.Up()); err != nil {
		panic(err)
	}
}
