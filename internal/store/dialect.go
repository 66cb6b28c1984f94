package store

import "github.com/jjudge-oj/roster/config"

// dialect holds the driver-specific SQL for the users table.
// returning reports whether insertUser yields the new id as a row.
type dialect struct {
	insertUser string
	listUsers  string
	returning  bool
}

var postgresDialect = dialect{
	insertUser: `
		INSERT INTO users (name, email, photo_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
	listUsers: `
		SELECT id, name, email, photo_url, status, created_at
		FROM users
		ORDER BY created_at DESC, id DESC`,
	returning: true,
}

var sqliteDialect = dialect{
	insertUser: `
		INSERT INTO users (name, email, photo_url, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
	listUsers: `
		SELECT id, name, email, photo_url, status, created_at
		FROM users
		ORDER BY created_at DESC, id DESC`,
}

func dialectFor(driver string) dialect {
	if driver == config.DriverSQLite {
		return sqliteDialect
	}
	return postgresDialect
}
