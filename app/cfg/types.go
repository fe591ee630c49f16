package cfg

type Cfg struct {
	// Server configuration
	Port            string
	DBPath          string
	AuthTokens      string
	RateLimitMax    int
	RateLimitWindow int

	// Agent configuration
	ServerURL         string
	AuthToken         string
	ReplicaDBPath     string
	SubscriptionsFile string
	WorkerCount       int
	SchedulerInterval int
	SyncInterval      int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
