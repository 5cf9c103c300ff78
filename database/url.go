package database

import (
	"net/url"
	"os"
)

// ConstructDatabaseURL points a server URL at databaseName, replacing any
// database already in the path. sslmode defaults to disable when absent.
// Unparseable URLs are returned unchanged so the driver reports the error.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	u.Path = "/" + databaseName
	u.RawPath = ""

	query := u.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// URLFromEnv builds the database URL from DATABASE_URL and DATABASE_NAME.
// The migrate command uses it so it can run without the bot's other settings.
func URLFromEnv() string {
	return ConstructDatabaseURL(os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_NAME"))
}
