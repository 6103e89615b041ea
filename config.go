package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flags "github.com/jessevdk/go-flags"

	"github.com/joltify-finance/token-staking/chaincfg"
	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/emission"
	"github.com/joltify-finance/token-staking/eventbus"
	"github.com/joltify-finance/token-staking/utils"
)

const (
	defaultConfigFilename       = "staking.conf"
	defaultLogDirname           = "logs"
	defaultLogFilename          = "staking.log"
	defaultDbType               = dal.DBTypeMySQL
	defaultLogLevel             = "info"
	defaultRPCLimitUser         = "viewer"
	defaultRPCLimitPass         = "viewer"
	defaultMaxRPCClients        = 1000
	defaultMaxRPCWebsockets     = 1000
	defaultMaxRPCConcurrentReqs = 200
	defaultReplayCacheSize      = 10000
	defaultDbAddress            = "127.0.0.1:3306"
	defaultDatabaseName         = "token_staking"
	defaultSqlitePath           = "staking.db"
	defaultEventBus             = "none"
	defaultEventQueueSize       = 1024
	defaultSnapshotSpec         = "0 0 * * * *"
	defaultPruneSpec            = "0 30 3 * * *"
	defaultSnapshotRetention    = 90 * 24 * time.Hour
	defaultSplitMode            = "FixedShare"

	localRPCCertFile = "rpc.cert"
	localRPCKeyFile  = "rpc.key"
)

var (
	defaultHomeDir    = utils.AppDataDir("token-staking", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
	knownDbTypes      = []string{dal.DBTypeMySQL, dal.DBTypeSQLite}
	knownEventBuses   = []string{defaultEventBus, eventbus.BackendGoChannel, eventbus.BackendRedis}
	netParams         = &chaincfg.MainNetParams
)

// config defines the configuration options for the staking daemon.
//
// See loadConfig for details on the configuration load process.
type config struct {
	AppDataDir  *utils.ExplicitString `short:"A" long:"appdata" description:"Application data directory for config, database and logs"`
	ConfigFile  string                `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool                  `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel  string                `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	LogDir      string                `long:"logdir" description:"Directory to log output."`
	ProfilePort string                `long:"profileport" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	SimNet      bool                  `long:"simnet" description:"Use the simulation network with an in-process token and a faucet"`

	DbType              string `long:"dbtype" description:"Database backend to use for the data {mysql, sqlite}"`
	DbUsername          string `long:"dbusername" description:"username which is used to connect with database"`
	DbPassword          string `long:"dbpassword" default-mask:"-" description:"password which is used to connect with database"`
	DbAddress           string `long:"dbaddress" description:"ip address and port of database (default: 127.0.0.1:3306)"`
	DbName              string `long:"dbname" description:"name of server database (default: token_staking)"`
	DbPath              string `long:"dbpath" description:"sqlite database file, :memory: for a private in-memory database"`
	DisableAutoCreateDB bool   `long:"noautocreatedb" description:"Disable creating database and table automatically"`

	Listeners            []string `long:"listen" description:"Add an interface/port to listen for JSON-RPC connections (HTTP/ws)"`
	RPCUser              string   `short:"u" long:"rpcuser" description:"Username for admin RPC connections"`
	RPCPass              string   `short:"P" long:"rpcpass" default-mask:"-" description:"Password for admin RPC connections"`
	RPCLimitUser         string   `long:"rpclimituser" description:"Username for limited RPC connections"`
	RPCLimitPass         string   `long:"rpclimitpass" default-mask:"-" description:"Password for limited RPC connections"`
	RPCCert              string   `long:"rpccert" description:"File containing the certificate file"`
	RPCKey               string   `long:"rpckey" description:"File containing the certificate key"`
	DisableTLS           bool     `long:"notls" description:"Disable TLS for the RPC server -- NOTE: This is only allowed if the RPC server is bound to localhost"`
	RPCMaxClients        int      `long:"rpcmaxclients" description:"Max number of HTTP POST clients"`
	RPCMaxWebsockets     int      `long:"rpcmaxwebsockets" description:"Max number of websocket connections"`
	RPCMaxConcurrentReqs int      `long:"rpcmaxconcurrentreqs" description:"Max number of concurrent requests of one websocket client"`
	ExternalIPs          []string `long:"externalip" description:"Add an ip to the list of hosts the generated certificate is valid for"`

	SignatureWindow int64 `long:"signaturewindow" description:"Accepted distance in seconds between the timestamp of a signed request and the server clock"`
	ReplayCacheSize int   `long:"replaycachesize" description:"Number of signed request digests remembered to reject replays"`

	RESTListen  string `long:"restlisten" description:"Interface/port of the read-only REST API"`
	RESTToken   string `long:"resttoken" default-mask:"-" description:"Bearer token required by the REST API, empty leaves it open"`
	DisableREST bool   `long:"norest" description:"Disable the REST API"`

	EventBus       string `long:"eventbus" description:"Event bus backend {none, gochannel, redis}"`
	RedisAddr      string `long:"redisaddr" description:"Address of the redis server used by the redis event bus"`
	RedisPassword  string `long:"redispass" default-mask:"-" description:"Password of the redis server"`
	EventTopic     string `long:"eventtopic" description:"Topic the ledger events are published to"`
	EventQueueSize int    `long:"eventqueuesize" description:"Events buffered for the event bus before new ones are dropped"`
	TraceEvents    bool   `long:"traceevents" description:"Subscribe to the event bus and log every event it carries"`

	SnapshotSpec      string        `long:"snapshotcron" description:"Cron spec, with seconds, of the pool snapshot job -- empty disables it"`
	PruneSpec         string        `long:"prunecron" description:"Cron spec, with seconds, of the history pruning job -- empty disables it"`
	SnapshotRetention time.Duration `long:"snapshotretention" description:"How long pool snapshots are kept, 0 keeps them forever"`

	PoolAddress string `long:"pooladdress" description:"Custody address of the pool on the token ledger"`
	InitParams  string `long:"initparams" description:"YAML file with the pool initialization parameters, used when the pool is not initialized yet"`
	SplitMode   string `long:"splitmode" description:"Default emission split mode when the init params do not name one {FixedShare, MaxRateCeiling}"`

	splitMode   emission.SplitMode
	poolAddress common.Address
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfg, options)
	return parser
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsystems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// oneOf returns whether or not v is one of known.
func oneOf(v string, known []string) bool {
	for _, k := range known {
		if v == k {
			return true
		}
	}
	return false
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "The specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "The specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// removeDuplicateAddresses returns a new slice with all duplicate entries in
// addrs removed.
func removeDuplicateAddresses(addrs []string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, val := range addrs {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// normalizeAddresses returns a new slice with all the passed addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) ([]string, error) {
	for i, addr := range addrs {
		normalized, err := utils.NormalizeAddress(addr, defaultPort)
		if err != nil {
			return nil, err
		}
		addrs[i] = normalized
	}

	return removeDuplicateAddresses(addrs), nil
}

// isLocalListener reports whether addr only binds a loopback interface.
func isLocalListener(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// defaultConfig returns the configuration before any file or flag is read.
func defaultConfig() config {
	return config{
		ConfigFile:           defaultConfigFile,
		AppDataDir:           utils.NewExplicitString(defaultHomeDir),
		DebugLevel:           defaultLogLevel,
		LogDir:               defaultLogDir,
		DbType:               defaultDbType,
		DbName:               defaultDatabaseName,
		RPCLimitUser:         defaultRPCLimitUser,
		RPCLimitPass:         defaultRPCLimitPass,
		RPCMaxClients:        defaultMaxRPCClients,
		RPCMaxConcurrentReqs: defaultMaxRPCConcurrentReqs,
		RPCMaxWebsockets:     defaultMaxRPCWebsockets,
		ReplayCacheSize:      defaultReplayCacheSize,
		EventBus:             defaultEventBus,
		EventTopic:           eventbus.DefaultTopic,
		EventQueueSize:       defaultEventQueueSize,
		SnapshotSpec:         defaultSnapshotSpec,
		PruneSpec:            defaultPruneSpec,
		SnapshotRetention:    defaultSnapshotRetention,
		SplitMode:            defaultSplitMode,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in the daemon functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	cfg := defaultConfig()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// A custom appdata directory moves the default config file and log
	// directory along with it.
	homeDir := defaultHomeDir
	if preCfg.AppDataDir.ExplicitlySet() {
		homeDir = cleanAndExpandPath(preCfg.AppDataDir.Value)
		if preCfg.ConfigFile == defaultConfigFile {
			preCfg.ConfigFile = filepath.Join(homeDir, defaultConfigFilename)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(homeDir, defaultLogDirname)
		}
	}

	// Load additional config from file.
	var configFileError error
	parser := newConfigParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config "+
				"file: %v\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	// Create the home directory if it doesn't already exist.
	funcName := "loadConfig"
	err = os.MkdirAll(homeDir, 0700)
	if err != nil {
		// Show a nicer error message if it's because a symlink is
		// linked to a directory that does not exist (probably because
		// it's not mounted).
		if e, ok := err.(*os.PathError); ok && os.IsExist(err) {
			if link, lerr := os.Readlink(e.Path); lerr == nil {
				str := "is symlink %s -> %s mounted?"
				err = fmt.Errorf(str, e.Path, link)
			}
		}

		str := "%s: Failed to create home directory: %v"
		err := fmt.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Expand the log directory
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Show version at startup.
	stkdLog.Infof("Version %s", version())

	if err := validateConfig(&cfg, homeDir); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid
	// options.  Note this should go directly before the return.
	if configFileError != nil {
		stkdLog.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}

// validateConfig checks the parsed options and fills in the defaults which
// depend on other options.  It never touches the filesystem besides resolving
// paths relative to homeDir.
func validateConfig(cfg *config, homeDir string) error {
	netParams = &chaincfg.MainNetParams
	if cfg.SimNet {
		netParams = &chaincfg.SimNetParams
	}
	chaincfg.ActiveNetParams = netParams

	// Validate database type.
	if !oneOf(cfg.DbType, knownDbTypes) {
		str := "The specified database type [%v] is invalid -- " +
			"supported types %v"
		return fmt.Errorf(str, cfg.DbType, knownDbTypes)
	}
	switch cfg.DbType {
	case dal.DBTypeMySQL:
		if cfg.DbUsername == "" || cfg.DbPassword == "" {
			return errors.New("database username or password not configured, please add them in configuration file or " +
				"specify them using --dbusername and --dbpassword")
		}
		if cfg.DbAddress == "" {
			cfg.DbAddress = defaultDbAddress
		}
		if cfg.DbName == "" {
			return errors.New("nil dbname")
		}
		if cfg.SimNet {
			cfg.DbName = cfg.DbName + "_" + netParams.Name
		}
	case dal.DBTypeSQLite:
		switch {
		case netParams.UseMemTokenLedger && cfg.DbPath == "":
			// The simnet token ledger lives in memory, so the
			// ledger state must not outlive the process either.
			cfg.DbPath = ":memory:"
		case cfg.DbPath == "":
			cfg.DbPath = filepath.Join(homeDir, defaultSqlitePath)
		case cfg.DbPath != ":memory:":
			cfg.DbPath = cleanAndExpandPath(cfg.DbPath)
		}
	}

	// Add the default listener if none were specified.
	if len(cfg.Listeners) == 0 {
		cfg.Listeners = []string{
			net.JoinHostPort("", netParams.DefaultRPCPort),
		}
	}
	listeners, err := normalizeAddresses(cfg.Listeners, netParams.DefaultRPCPort)
	if err != nil {
		return err
	}
	cfg.Listeners = listeners

	if cfg.RPCUser == "" || cfg.RPCPass == "" {
		return errors.New("rpcuser and rpcpass should be configured for the admin RPC user")
	}
	if cfg.RPCUser == cfg.RPCLimitUser {
		return errors.New("--rpcuser and --rpclimituser must not specify the same username")
	}
	if cfg.DisableTLS {
		for _, addr := range cfg.Listeners {
			if !isLocalListener(addr) {
				return fmt.Errorf("the --notls option may not be used when binding RPC to non localhost addresses: %s", addr)
			}
		}
	}
	if cfg.RPCCert == "" {
		cfg.RPCCert = filepath.Join(homeDir, localRPCCertFile)
	}
	if cfg.RPCKey == "" {
		cfg.RPCKey = filepath.Join(homeDir, localRPCKeyFile)
	}
	cfg.RPCCert = cleanAndExpandPath(cfg.RPCCert)
	cfg.RPCKey = cleanAndExpandPath(cfg.RPCKey)
	if cfg.RPCMaxClients < 0 || cfg.RPCMaxWebsockets < 0 {
		return errors.New("rpcmaxclients and rpcmaxwebsockets may not be negative")
	}
	if cfg.RPCMaxConcurrentReqs <= 0 {
		cfg.RPCMaxConcurrentReqs = defaultMaxRPCConcurrentReqs
	}
	if cfg.SignatureWindow <= 0 {
		cfg.SignatureWindow = netParams.DefaultSignatureWindow
	}
	if cfg.ReplayCacheSize <= 0 {
		cfg.ReplayCacheSize = defaultReplayCacheSize
	}

	if !cfg.DisableREST {
		if cfg.RESTListen == "" {
			cfg.RESTListen = net.JoinHostPort("localhost", netParams.DefaultRESTPort)
		}
		cfg.RESTListen, err = utils.NormalizeAddress(cfg.RESTListen, netParams.DefaultRESTPort)
		if err != nil {
			return err
		}
		if cfg.RESTToken == "" && !isLocalListener(cfg.RESTListen) {
			stkdLog.Warnf("REST API on %v is open to anyone, consider --resttoken", cfg.RESTListen)
		}
	}

	if !oneOf(cfg.EventBus, knownEventBuses) {
		return fmt.Errorf("The specified event bus [%v] is invalid -- supported %v", cfg.EventBus, knownEventBuses)
	}
	if cfg.EventBus == eventbus.BackendRedis && cfg.RedisAddr == "" {
		return errors.New("the redis event bus needs --redisaddr")
	}
	if cfg.TraceEvents && cfg.EventBus == defaultEventBus {
		return errors.New("--traceevents needs an event bus")
	}

	if cfg.SnapshotRetention < 0 {
		return errors.New("snapshotretention may not be negative")
	}

	cfg.splitMode, err = emission.ParseSplitMode(cfg.SplitMode)
	if err != nil {
		return err
	}

	switch {
	case cfg.PoolAddress != "":
		addr, err := utils.ParseAddress(cfg.PoolAddress)
		if err != nil {
			return fmt.Errorf("pooladdress: %v", err)
		}
		cfg.poolAddress = addr
	case netParams.UseMemTokenLedger:
		cfg.poolAddress = simnetPoolAddress
	default:
		return errors.New("no pool address specified, please add --pooladdress")
	}

	if cfg.InitParams != "" {
		cfg.InitParams = cleanAndExpandPath(cfg.InitParams)
		exists, err := utils.FileExists(cfg.InitParams)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("init params file %v does not exist", cfg.InitParams)
		}
	}

	// Validate profile port number
	if cfg.ProfilePort != "" {
		profilePort, err := strconv.Atoi(cfg.ProfilePort)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.New("The profile port must be between 1024 and 65535")
		}
	}

	stkdLog.Infof("Network %v, %d RPC %s, database %v", netParams.Name, len(cfg.Listeners),
		pickNoun(len(cfg.Listeners), "listener", "listeners"), cfg.DbType)
	return nil
}
