package migration

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSourceDSN(t *testing.T) {
	table := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "no-options",
			dsn:  "root:1@tcp(localhost:3306)/catalog",
			want: "mysql://root:1@tcp(localhost:3306)/catalog?multiStatements=true",
		},
		{
			name: "empty-options",
			dsn:  "root:1@tcp(localhost:3306)/catalog?",
			want: "mysql://root:1@tcp(localhost:3306)/catalog?multiStatements=true",
		},
		{
			name: "with-options",
			dsn:  "root:1@tcp(localhost:3306)/catalog?parseTime=true",
			want: "mysql://root:1@tcp(localhost:3306)/catalog?parseTime=true&multiStatements=true",
		},
		{
			name: "already-set",
			dsn:  "root:1@tcp(localhost:3306)/catalog?multiStatements=true",
			want: "mysql://root:1@tcp(localhost:3306)/catalog?multiStatements=true",
		},
	}
	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			assert.Equal(t, e.want, sourceDSN(e.dsn))
		})
	}
}

func TestMigrateCommand(t *testing.T) {
	cmd := MigrateCommand("root:1@tcp(localhost:3306)/catalog")

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"down", "force", "up", "version"}, names)
}
