package config

const (
	defaultTimeoutSeconds = 30
	defaultUserAgent      = "epgmerge/0.1.0"
	defaultOutputPath     = "epg_all.xml"
	defaultOutputMode     = OutputModeBoth
	defaultCachePath      = "~/.cache/epgmerge/fetch.db"
	defaultRefreshURL     = "https://nocords.xyz/pluto/epg.xml"
	defaultRefreshPath    = "pluto.xml"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLockDir        = "~/.local/share/epgmerge"
)

// Output container modes.
const (
	// OutputModeBoth writes the uncompressed XML plus a gzipped sibling.
	OutputModeBoth = "both"
	// OutputModeGzip writes only the gzipped stream.
	OutputModeGzip = "gzip"
)

func defaultSourceURLs() []string {
	return []string{
		"https://epgshare01.online/epgshare01/epg_ripper_MN1.xml.gz",
		"https://epgshare01.online/epgshare01/epg_ripper_AE1.xml.gz",
		"https://epgshare01.online/epgshare01/epg_ripper_PL1.xml.gz",
		"https://epgshare01.online/epgshare01/epg_ripper_TR1.xml.gz",
		"https://epgshare01.online/epgshare01/epg_ripper_CZ1.xml.gz",
		"https://epgshare01.online/epgshare01/epg_ripper_IT1.xml.gz",
		"https://epgshare01.online/epgshare01/epg_ripper_UK1.xml.gz",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Sources: Sources{
			URLs:      defaultSourceURLs(),
			Timeout:   defaultTimeoutSeconds,
			UserAgent: defaultUserAgent,
		},
		Output: Output{
			Path:           defaultOutputPath,
			Mode:           defaultOutputMode,
			DedupeChannels: true,
		},
		Cache: Cache{
			Path: defaultCachePath,
		},
		Refresh: Refresh{
			URL:  defaultRefreshURL,
			Path: defaultRefreshPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Paths: Paths{
			LockDir: defaultLockDir,
		},
	}
}
