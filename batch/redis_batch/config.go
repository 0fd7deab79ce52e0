package redis_batch

type ConnConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (c *ConnConfig) WithDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
}

// SinkConfig stores each record as a hash field under KeyPrefix+key.
type SinkConfig struct {
	KeyPrefix  string `json:"key_prefix"`
	ValueField string `json:"value_field"`
	Replace    bool   `json:"replace"`
	Pipeline   int    `json:"pipeline"`
}

func (c *SinkConfig) WithDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "textjobs:"
	}
	if c.ValueField == "" {
		c.ValueField = "value"
	}
	if c.Pipeline <= 0 {
		c.Pipeline = 256
	}
}
