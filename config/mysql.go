package config

import (
	"fmt"
	"github.com/jmoiron/sqlx"
	"net/url"
	"strings"
	"time"
)

// MySQLOption is one query parameter of the DSN
type MySQLOption struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

// MySQLConfig for configuring MySQL
type MySQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            uint16        `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Options         []MySQLOption `mapstructure:"options"`
}

// requiredOptions are added to the DSN unless configured, dates and scraped_at are scanned into time.Time
var requiredOptions = []MySQLOption{
	{Key: "parseTime", Value: "true"},
	{Key: "loc", Value: "UTC"},
}

func (c MySQLConfig) options() []MySQLOption {
	opts := append([]MySQLOption(nil), c.Options...)
	for _, req := range requiredOptions {
		found := false
		for _, o := range c.Options {
			if o.Key == req.Key {
				found = true
				break
			}
		}
		if !found {
			opts = append(opts, req)
		}
	}
	return opts
}

func (c MySQLConfig) optionsString() string {
	var opts []string
	for _, o := range c.options() {
		key := url.QueryEscape(o.Key)
		value := url.QueryEscape(o.Value)
		opts = append(opts, key+"="+value)
	}
	return strings.Join(opts, "&")
}

// DSN returns data source name
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.optionsString())
}

// MustConnect connects to database using sqlx
func (c MySQLConfig) MustConnect() *sqlx.DB {
	db := sqlx.MustConnect("mysql", c.DSN())

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
	return db
}
