package config

// Overrides carries command-line values that replace loaded settings. Nil
// fields leave the loaded value alone.
type Overrides struct {
	Workers            *int
	Verbose            *bool
	Backend            *string
	AllowMultipleAudio *bool
	LogLevel           *string
	LogFormat          *string
}

// Apply merges o into c, then normalizes and validates the result. Switching
// backend also switches the video extension between webm and mkv.
func (c *Config) Apply(o Overrides) error {
	if o.Workers != nil {
		c.Encoding.Workers = *o.Workers
	}
	if o.Verbose != nil {
		c.Run.Verbose = *o.Verbose
	}
	if o.Backend != nil {
		c.Encoding.Backend = *o.Backend
	}
	if o.AllowMultipleAudio != nil {
		c.Encoding.AllowMultipleAudio = *o.AllowMultipleAudio
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		c.Logging.Format = *o.LogFormat
	}

	if err := c.normalize(); err != nil {
		return err
	}
	switch {
	case c.Encoding.Backend == BackendDrapto && c.Encoding.VideoExtension == defaultVideoExtension:
		c.Encoding.VideoExtension = "mkv"
	case c.Encoding.Backend == BackendFFmpeg && c.Encoding.VideoExtension == "mkv":
		c.Encoding.VideoExtension = defaultVideoExtension
	}
	return c.Validate()
}
