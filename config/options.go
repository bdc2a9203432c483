package config

// Option はConfigを上書きする関数。CLIフラグの適用に使う
type Option func(*Config)

// WithXMLRoot はXMLのルートディレクトリを設定する
func WithXMLRoot(path string) Option {
	return func(c *Config) {
		c.Paths.XMLRootPath = path
	}
}

// WithCacheRoot はキャッシュディレクトリを設定する
func WithCacheRoot(path string) Option {
	return func(c *Config) {
		c.Paths.CacheRootPath = path
	}
}

// WithWorkers は並列数を設定する。0はCPU数
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithLogLevel はログレベルを設定する
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithSeed は分割の乱数シードを設定する
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Split.Seed = seed
	}
}

// Apply はオプションを適用して再検証した設定を返す
func (c Config) Apply(opts ...Option) (Config, error) {
	c.Pipeline.UsedKeypoints = append([]string(nil), c.Pipeline.UsedKeypoints...)
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
