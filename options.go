package blit

// Config holds the tunable parameters of a rendering context. Only
// allocation granularity and coordinate conversion are configurable;
// everything else is derived from the GPU device.
type Config struct {
	// DPIScale is the display's pixels-per-DIP ratio as reported by the
	// windowing layer. Default: 1.
	DPIScale float32

	// Zoom is the user zoom factor multiplied into DPIScale.
	// Default: 1.
	Zoom float32

	// MaxAtlasDimension is the largest width or height of a shared atlas
	// texture. Images bigger than this in either dimension get a
	// dedicated texture instead of an atlas slot. Default: 4096.
	MaxAtlasDimension UPx

	// MinimumAtlasTile is the granularity new atlas textures are rounded
	// up to. Opening a texture sized to exactly one awkward request
	// would fragment immediately; rounding up amortizes future
	// allocations. Must be a power of two. Default: 256.
	MinimumAtlasTile UPx

	// InitialAtlasSize is the edge length of the first atlas texture.
	// Must be a power of two and at least MinimumAtlasTile.
	// Default: 1024.
	InitialAtlasSize UPx
}

// DefaultConfig returns the configuration used when a zero Config is
// passed to NewContext.
func DefaultConfig() Config {
	return Config{
		DPIScale:          1,
		Zoom:              1,
		MaxAtlasDimension: 4096,
		MinimumAtlasTile:  256,
		InitialAtlasSize:  1024,
	}
}

// Validate checks the configuration, returning a *ConfigError naming the
// first offending field.
func (c *Config) Validate() error {
	if c.DPIScale <= 0 {
		return &ConfigError{Field: "DPIScale", Reason: "must be positive"}
	}
	if c.Zoom <= 0 {
		return &ConfigError{Field: "Zoom", Reason: "must be positive"}
	}
	if c.MaxAtlasDimension < 64 {
		return &ConfigError{Field: "MaxAtlasDimension", Reason: "must be at least 64"}
	}
	if c.MinimumAtlasTile < 16 {
		return &ConfigError{Field: "MinimumAtlasTile", Reason: "must be at least 16"}
	}
	if c.MinimumAtlasTile&(c.MinimumAtlasTile-1) != 0 {
		return &ConfigError{Field: "MinimumAtlasTile", Reason: "must be a power of two"}
	}
	if c.InitialAtlasSize < c.MinimumAtlasTile {
		return &ConfigError{Field: "InitialAtlasSize", Reason: "must be at least MinimumAtlasTile"}
	}
	if c.InitialAtlasSize&(c.InitialAtlasSize-1) != 0 {
		return &ConfigError{Field: "InitialAtlasSize", Reason: "must be a power of two"}
	}
	if c.InitialAtlasSize > c.MaxAtlasDimension {
		return &ConfigError{Field: "InitialAtlasSize", Reason: "must be at most MaxAtlasDimension"}
	}
	return nil
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DPIScale == 0 {
		c.DPIScale = def.DPIScale
	}
	if c.Zoom == 0 {
		c.Zoom = def.Zoom
	}
	if c.MaxAtlasDimension == 0 {
		c.MaxAtlasDimension = def.MaxAtlasDimension
	}
	if c.MinimumAtlasTile == 0 {
		c.MinimumAtlasTile = def.MinimumAtlasTile
	}
	if c.InitialAtlasSize == 0 {
		c.InitialAtlasSize = def.InitialAtlasSize
	}
	return c
}
