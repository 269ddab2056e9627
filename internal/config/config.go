package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for APP_TIMEZONE on minimal images

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string         // application environment (e.g. "dev", "prod")
	Port           string         // HTTP port to listen on
	DBUser         string         // database username
	DBPass         string         // database password (optional)
	DBHost         string         // database host address
	DBPort         string         // database port number
	DBName         string         // database name
	DBAutoMigrate  bool           // apply the bundled schema on startup
	JWTSecret      string         // secret used to sign JWTs
	AccessTTLMin   int            // access token time-to-live in minutes
	RefreshTTLDays int            // refresh token time-to-live in days
	BcryptCost     int            // bcrypt cost for password hashing
	Location       *time.Location // timezone in which "today" is evaluated
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" || c.Env == "local" }

// LoadDotEnv reads a .env file into the process environment when one is
// present. Variables that are already set win over the file.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logrus.WithError(err).WithField("file", p).Warn("could not load env file")
		}
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBAutoMigrate:  envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Location:       location(envStr("APP_TIMEZONE", "UTC")),
	}
}

// location resolves an IANA timezone name, exiting on unknown names so a
// typo never silently shifts the cancellation cutoff.
func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.Fatalf("invalid APP_TIMEZONE %q: %v", name, err)
	}
	return loc
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
