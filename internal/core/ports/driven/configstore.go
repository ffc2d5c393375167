package driven

// Well-known configuration keys.
const (
	// ConfigKeyWorkspace is the active workspace ID.
	ConfigKeyWorkspace = "workspace.id"

	// ConfigKeySimilarityFloor is the retrieval relevance cutoff.
	// Values at or below the floor are discarded as irrelevant. The
	// default of 0.3 suits OpenAI-class embedding models; recalibrate
	// when switching models.
	ConfigKeySimilarityFloor = "retrieval.similarity_floor"

	// ConfigKeySchedulerEnabled toggles scheduled synthesis runs.
	ConfigKeySchedulerEnabled = "scheduler.enabled"

	// ConfigKeySchedulerInterval is the minutes between scheduled runs.
	ConfigKeySchedulerInterval = "scheduler.interval_minutes"
)

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetFloat retrieves a float configuration value.
	// Returns 0 if key doesn't exist or isn't numeric.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
