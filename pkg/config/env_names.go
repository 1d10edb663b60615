package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without tags.
const EnvPrefix = "littlelemon"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "LITTLELEMON_APP_ENV"
	EnvPort       = "LITTLELEMON_APP_PORT"
	EnvDBDSN      = "LITTLELEMON_DB_DSN"
	EnvDBHost     = "LITTLELEMON_DB_HOST"
	EnvDBUser     = "LITTLELEMON_DB_USER"
	EnvDBName     = "LITTLELEMON_DB_NAME"
	EnvRedisURL   = "LITTLELEMON_REDIS_URL"
	EnvJWTSecret  = "LITTLELEMON_JWT_SECRET"
	EnvJWTIssuer  = "LITTLELEMON_JWT_ISSUER"
	EnvJWTExpMins = "LITTLELEMON_JWT_EXPIRATION_MINUTES"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
