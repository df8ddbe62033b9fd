package s3

// DefaultLocalEndpoint is used when path-style addressing is forced but no
// endpoint is configured. It reaches a LocalStack container from inside
// another container.
const DefaultLocalEndpoint = "http://host.docker.internal:4566"

// Config represents object store configuration
type Config struct {
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	IsTestOrDev bool   `yaml:"is_test_or_dev"`

	// Static credentials, optional. The default credential chain is used
	// when AccessKeyID is empty.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`

	// MaxRetries is handed to the SDK retryer; zero keeps the SDK default.
	MaxRetries int `yaml:"max_retries"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Region:     "ap-southeast-1",
		MaxRetries: 3,
	}
}

// ForcePathStyle reports whether the client must use path-style addressing
// against an explicit endpoint.
func (c *Config) ForcePathStyle() bool {
	return c.IsTestOrDev || c.Endpoint != ""
}

// ResolvedEndpoint returns the endpoint the client is pointed at when
// path-style addressing is forced.
func (c *Config) ResolvedEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultLocalEndpoint
}

// IsNonVersioned reports whether the configured endpoint lacks object versioning
func (c *Config) IsNonVersioned() bool {
	return IsNonVersionedEndpoint(c.Endpoint)
}
