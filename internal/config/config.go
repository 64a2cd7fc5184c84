package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits and normalizes list-valued variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, and a set for the admin allow-list.
type Config struct {
    Env          string          // application environment (e.g. "dev", "prod")
    Port         string          // HTTP port to listen on
    DBUser       string          // database username
    DBPass       string          // database password (optional)
    DBHost       string          // database host address
    DBPort       string          // database port number
    DBName       string          // database name
    JWTSecret    string          // secret used to sign JWTs
    AccessTTLMin int             // access token time‑to‑live in minutes
    BcryptCost   int             // bcrypt cost for password hashing
    Timezone     string          // IANA zone the posting window is evaluated in
    UploadDir    string          // directory where uploaded images are stored
    AdminUsers   map[string]bool // lower-cased usernames granted the ADMIN role
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),                 // environment (dev/test/prod)
        Port:         must("APP_PORT"),                // port to bind the HTTP server
        DBUser:       must("DB_USER"),                 // database user
        DBPass:       os.Getenv("DB_PASS"),            // database password (empty allowed)
        DBHost:       must("DB_HOST"),                 // database host
        DBPort:       must("DB_PORT"),                 // database port
        DBName:       must("DB_NAME"),                 // database name
        JWTSecret:    must("JWT_SECRET"),              // secret used for signing JWTs
        AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for access tokens in minutes
        BcryptCost:   mustInt("BCRYPT_COST"),          // bcrypt cost factor
        Timezone:     getenv("BOARD_TIMEZONE", "America/Chicago"),
        UploadDir:    getenv("UPLOAD_DIR", "uploads"),
        AdminUsers:   parseAdmins(os.Getenv("ADMIN_USERS")),
    }
}

// IsAdmin reports whether the given username belongs to the admin allow-list.
// Comparison is case-insensitive; the set holds lower-cased entries.
func (c Config) IsAdmin(username string) bool {
    return c.AdminUsers[strings.ToLower(strings.TrimSpace(username))]
}

// parseAdmins splits a comma-separated list of usernames into a lookup set.
// Entries are trimmed and lower-cased; empty entries are skipped.
func parseAdmins(s string) map[string]bool {
    set := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.ToLower(strings.TrimSpace(p))
        if p != "" {
            set[p] = true
        }
    }
    return set
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
