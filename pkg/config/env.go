package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv            = "SWEETTREATS_APP_ENV"
	EnvPort              = "SWEETTREATS_APP_PORT"
	EnvStorageDriver     = "SWEETTREATS_STORAGE_DRIVER"
	EnvDBDSN             = "SWEETTREATS_DB_DSN"
	EnvDBDriver          = "SWEETTREATS_DB_DRIVER"
	EnvRedisURL          = "SWEETTREATS_REDIS_URL"
	EnvRedisAddr         = "SWEETTREATS_REDIS_ADDR"
	EnvCartStorageKey    = "SWEETTREATS_CART_STORAGE_KEY"
	EnvCartFlatShipping  = "SWEETTREATS_CART_FLAT_SHIPPING"
	EnvGCPProjectID      = "SWEETTREATS_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "SWEETTREATS_PUBSUB_ORDERS_TOPIC"
)
