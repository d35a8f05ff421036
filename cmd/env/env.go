package env

const (
	// Prefix is the prefix of all fxgrab environment variables
	Prefix = "FXGRAB_"

	// DBURLSuffix is the suffix of the database URL variable
	DBURLSuffix = "DB_URL"
)
