package config

const (
	defaultDataDir            = "~/.local/share/scout"
	defaultLogDir             = "~/.local/share/scout/logs"
	defaultAPIBind            = "127.0.0.1:7478"
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "en-US"
	defaultTMDBRegion         = "US"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultWatchedPerUser     = 10
	defaultMaxSimilarMovie    = 20
	defaultMaxSimilarTV       = 10
	defaultResolverParallel   = 4
	defaultProviderTimeout    = 15
	defaultTickInterval       = 30
	defaultErrorRetryInterval = 10
	defaultQueuePollInterval  = 5
	defaultSubmitDelaySeconds = 5
	defaultMaxAttempts        = 3
	defaultRequestTimeout     = 15
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
			Region:   defaultTMDBRegion,
		},
		Overseerr: Overseerr{
			RequestTimeout:     defaultRequestTimeout,
			SubmitDelaySeconds: defaultSubmitDelaySeconds,
			MaxAttempts:        defaultMaxAttempts,
		},
		Resolver: Resolver{
			WatchedPerUser:  defaultWatchedPerUser,
			MaxSimilarMovie: defaultMaxSimilarMovie,
			MaxSimilarTV:    defaultMaxSimilarTV,
			Parallelism:     defaultResolverParallel,
			ProviderTimeout: defaultProviderTimeout,
		},
		Scheduler: Scheduler{
			TickInterval:       defaultTickInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			QueuePollInterval:  defaultQueuePollInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Jobs:           true,
			Queue:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
