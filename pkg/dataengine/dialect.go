package dataengine

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"    // cgo SQLite driver ("sqlite3")
	_ "modernc.org/sqlite"             // pure Go SQLite driver ("sqlite")
)

// Credentials identify the backing store.
type Credentials struct {
	// Driver selects the dialect: "mysql", "postgres", "sqlite" or "sqlite3".
	Driver string

	Host     string
	Port     int
	User     string
	Password string
	Database string

	// Path is the database file for the SQLite drivers. Database is used
	// when Path is empty.
	Path string

	// Params are appended to the DSN as driver specific options.
	Params map[string]string
}

// Address returns a printable location without secrets.
func (c Credentials) Address() string {
	switch c.Driver {
	case "sqlite", "sqlite3":
		return c.file()
	}
	return fmt.Sprintf("%s@%s/%s", c.User, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
}

func (c Credentials) file() string {
	if c.Path != "" {
		return c.Path
	}
	return c.Database
}

// Dialect describes how statements and DSNs are written for one driver.
type Dialect struct {
	// Name is the configured driver name.
	Name string

	// DriverName is the name registered with database/sql.
	DriverName string

	numbered bool
}

var (
	MySQL    = Dialect{Name: "mysql", DriverName: "mysql"}
	Postgres = Dialect{Name: "postgres", DriverName: "pgx", numbered: true}
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite"}
	SQLite3  = Dialect{Name: "sqlite3", DriverName: "sqlite3"}
)

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	case "sqlite3":
		return SQLite3, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Rebind rewrites "?" placeholders into the dialect's native form.
// Question marks inside quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// DSN builds the driver connection string.
func (d Dialect) DSN(c Credentials) string {
	switch d.Name {
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.Database,
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		q := url.Values{}
		q.Set("sslmode", "disable")
		for k, v := range c.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String()

	case "sqlite", "sqlite3":
		if len(c.Params) == 0 {
			return c.file()
		}
		q := url.Values{}
		for k, v := range c.Params {
			q.Set(k, v)
		}
		return c.file() + "?" + q.Encode()

	default:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		cfg.DBName = c.Database
		cfg.Timeout = 10 * time.Second
		if len(c.Params) > 0 {
			cfg.Params = make(map[string]string, len(c.Params))
			for k, v := range c.Params {
				cfg.Params[k] = v
			}
		}
		return cfg.FormatDSN()
	}
}

// EscapeLike escapes LIKE wildcards in s so it matches literally when used
// with LikeEscapeClause.
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// LikeEscapeClause is the ESCAPE clause matching EscapeLike. "!" is used
// because backslash is itself an escape character in MySQL literals.
const LikeEscapeClause = "ESCAPE '!'"
