package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// defaultAllowedExtensions is the admission filter's file-extension blocklist.
var defaultAllowedExtensions = []string{
	"css", "js", "bmp", "gif", "jpe?g", "ico", "png", "tiff?", "mid", "mp2", "mp3", "mp4",
	"wav", "avi", "mov", "mpeg", "ram", "m4v", "mkv", "ogg", "ogv", "pdf", "ps", "eps", "tex",
	"ppt", "pptx", "doc", "docx", "xls", "xlsx", "names", "data", "dat", "exe", "bz2", "tar",
	"msi", "bin", "7z", "psd", "dmg", "iso", "epub", "dll", "cnf", "tgz", "sha1", "thmx", "mso",
	"arff", "rtf", "jar", "csv", "rm", "smil", "wmv", "swf", "wma", "zip", "rar", "gz",
}

var defaultSessionQueryKeys = []string{"session", "sid", "jsessionid"}

var defaultAllowedHostSuffixes = []string{
	".ics.uci.edu", ".cs.uci.edu", ".informatics.uci.edu", ".stat.uci.edu",
}

type Config struct {
	//===============
	// Crawl scope
	//===============
	seedURLs []url.URL

	//===============
	// Local / discovery store
	//===============
	saveFile     string
	threadsCount int

	//===============
	// Connection (registration + cache proxy)
	//===============
	cacheServer string
	host        string
	port        int
	userAgent   string

	//===============
	// Crawler / frontier
	//===============
	timeDelay        time.Duration
	politenessDelay  time.Duration
	syncEvery        int
	syncInterval     time.Duration
	robotsUserAgents []string

	//===============
	// Admission
	//===============
	allowedHostSuffixes []string
	blockedExtensions   []string
	sessionQueryKeys    []string
	maxPathSegmentLen   int

	//===============
	// Supplemental
	//===============
	enableSimhash bool
	restart       bool
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	local := file.Section("local")
	connection := file.Section("connection")
	crawler := file.Section("crawler")
	robots := file.Section("robots")

	seedURLsRaw := crawler.Key("seed_urls").String()
	if seedURLsRaw == "" {
		return Config{}, fmt.Errorf("%w: crawler.seed_urls is required", ErrInvalidConfig)
	}
	seedURLs, err := parseSeedURLs(seedURLsRaw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg := WithDefault(seedURLs)

	if v := local.Key("save_file").String(); v != "" {
		cfg.WithSaveFile(v)
	}
	if v := local.Key("threads_count").String(); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: local.threads_count: %s", ErrConfigParsingFail, err.Error())
		}
		cfg.WithThreadsCount(n)
	}

	if v := connection.Key("cache_server").String(); v != "" {
		cfg.WithCacheServer(v)
	}
	if v := connection.Key("host").String(); v != "" {
		cfg.WithHost(v)
	}
	if v := connection.Key("port").String(); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: connection.port: %s", ErrConfigParsingFail, err.Error())
		}
		cfg.WithPort(n)
	}
	if v := connection.Key("user_agent").String(); v != "" {
		cfg.WithUserAgent(v)
	}

	if v := crawler.Key("time_delay").String(); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: crawler.time_delay: %s", ErrConfigParsingFail, err.Error())
		}
		cfg.WithTimeDelay(time.Duration(f * float64(time.Second)))
	}

	if v := robots.Key("user_agents").String(); v != "" {
		cfg.WithRobotsUserAgents(splitAndTrim(v))
	}

	return cfg.Build()
}

// WithDefault creates a new Config with the provided seed URLs and default
// values for all other fields. seedUrls is mandatory and must not be empty -
// an error will be returned at Build().
func WithDefault(seedUrls []url.URL) *Config {
	defaultConfig := Config{
		seedURLs: seedUrls,

		saveFile:     "frontier.db",
		threadsCount: 10,

		cacheServer: "",
		host:        "",
		port:        0,
		userAgent:   "frontier-crawler/1.0",

		timeDelay:       500 * time.Millisecond,
		politenessDelay: 500 * time.Millisecond,
		syncEvery:       200,
		syncInterval:    5 * time.Second,

		allowedHostSuffixes: append([]string{}, defaultAllowedHostSuffixes...),
		blockedExtensions:   append([]string{}, defaultAllowedExtensions...),
		sessionQueryKeys:    append([]string{}, defaultSessionQueryKeys...),
		maxPathSegmentLen:   50,

		enableSimhash: false,
		restart:       false,
	}
	return &defaultConfig
}

func (c *Config) WithSeedUrls(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithSaveFile(path string) *Config {
	c.saveFile = path
	return c
}

func (c *Config) WithThreadsCount(n int) *Config {
	c.threadsCount = n
	return c
}

func (c *Config) WithCacheServer(server string) *Config {
	c.cacheServer = server
	return c
}

func (c *Config) WithHost(host string) *Config {
	c.host = host
	return c
}

func (c *Config) WithPort(port int) *Config {
	c.port = port
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeDelay(delay time.Duration) *Config {
	c.timeDelay = delay
	return c
}

func (c *Config) WithPolitenessDelay(delay time.Duration) *Config {
	c.politenessDelay = delay
	return c
}

func (c *Config) WithSyncEvery(n int) *Config {
	c.syncEvery = n
	return c
}

func (c *Config) WithSyncInterval(interval time.Duration) *Config {
	c.syncInterval = interval
	return c
}

func (c *Config) WithRobotsUserAgents(agents []string) *Config {
	c.robotsUserAgents = agents
	return c
}

func (c *Config) WithAllowedHostSuffixes(suffixes []string) *Config {
	c.allowedHostSuffixes = suffixes
	return c
}

func (c *Config) WithBlockedExtensions(extensions []string) *Config {
	c.blockedExtensions = extensions
	return c
}

func (c *Config) WithSessionQueryKeys(keys []string) *Config {
	c.sessionQueryKeys = keys
	return c
}

func (c *Config) WithMaxPathSegmentLen(n int) *Config {
	c.maxPathSegmentLen = n
	return c
}

func (c *Config) WithEnableSimhash(enabled bool) *Config {
	c.enableSimhash = enabled
	return c
}

func (c *Config) WithRestart(restart bool) *Config {
	c.restart = restart
	return c
}

func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("%w: seedUrls cannot be empty", ErrInvalidConfig)
	}
	if c.saveFile == "" {
		return Config{}, fmt.Errorf("%w: save_file cannot be empty", ErrInvalidConfig)
	}
	if c.threadsCount <= 0 {
		return Config{}, fmt.Errorf("%w: threads_count must be positive", ErrInvalidConfig)
	}
	return *c, nil
}

func (c Config) SeedURLs() []url.URL {
	urls := make([]url.URL, len(c.seedURLs))
	copy(urls, c.seedURLs)
	return urls
}

func (c Config) SaveFile() string {
	return c.saveFile
}

func (c Config) ThreadsCount() int {
	return c.threadsCount
}

func (c Config) CacheServer() string {
	return c.cacheServer
}

func (c Config) Host() string {
	return c.host
}

func (c Config) Port() int {
	return c.port
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) TimeDelay() time.Duration {
	return c.timeDelay
}

func (c Config) PolitenessDelay() time.Duration {
	return c.politenessDelay
}

func (c Config) SyncEvery() int {
	return c.syncEvery
}

func (c Config) SyncInterval() time.Duration {
	return c.syncInterval
}

func (c Config) RobotsUserAgents() []string {
	agents := make([]string, len(c.robotsUserAgents))
	copy(agents, c.robotsUserAgents)
	return agents
}

func (c Config) AllowedHostSuffixes() []string {
	suffixes := make([]string, len(c.allowedHostSuffixes))
	copy(suffixes, c.allowedHostSuffixes)
	return suffixes
}

func (c Config) BlockedExtensions() []string {
	extensions := make([]string, len(c.blockedExtensions))
	copy(extensions, c.blockedExtensions)
	return extensions
}

func (c Config) SessionQueryKeys() []string {
	keys := make([]string, len(c.sessionQueryKeys))
	copy(keys, c.sessionQueryKeys)
	return keys
}

func (c Config) MaxPathSegmentLen() int {
	return c.maxPathSegmentLen
}

func (c Config) EnableSimhash() bool {
	return c.enableSimhash
}

func (c Config) Restart() bool {
	return c.restart
}

func parseSeedURLs(raw string) ([]url.URL, error) {
	parts := splitAndTrim(raw)
	urls := make([]url.URL, 0, len(parts))
	for _, p := range parts {
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid seed url %q: %w", p, err)
		}
		urls = append(urls, *u)
	}
	return urls, nil
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
