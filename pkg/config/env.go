package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "ofd"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "OFD_DB_DSN"
	EnvDBHost = "OFD_DB_HOST"
	EnvDBUser = "OFD_DB_USER"
	EnvDBName = "OFD_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
