package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/joltify-finance/token-staking/chaincfg"
	"github.com/joltify-finance/token-staking/stakingjson"
	"github.com/joltify-finance/token-staking/utils"
)

const (
	// unusableFlags are the command usage flags which this utility are not
	// able to use.  In particular it doesn't support websockets and
	// consequently notifications.
	unusableFlags = stakingjson.UFWebsocketOnly | stakingjson.UFNotification
)

var (
	stakingHomeDir     = utils.AppDataDir("token-staking", false)
	stakingctlHomeDir  = utils.AppDataDir("stakingctl", false)
	defaultConfigFile  = filepath.Join(stakingctlHomeDir, "stakingctl.conf")
	defaultRPCServer   = "localhost"
	defaultRPCCertFile = filepath.Join(stakingHomeDir, "rpc.cert")
)

// listCommands categorizes and lists all of the usable commands along with
// the number of parameters they take.
func listCommands() {
	const (
		categoryQuery = iota
		categorySigned
		numCategories
	)

	// Get a list of registered commands and categorize and filter them.
	cmdMethods := stakingjson.RegisteredCmdMethods()
	categorized := make([][]string, numCategories)
	for _, method := range cmdMethods {
		flags, err := stakingjson.MethodUsageFlags(method)
		if err != nil {
			// This should never happen since the method was just
			// returned from the package, but be safe.
			continue
		}

		// Skip the commands that aren't usable from this utility.
		if flags&unusableFlags != 0 {
			continue
		}

		category := categoryQuery
		if flags&stakingjson.UFSigned != 0 {
			category = categorySigned
			method += " (signed with --privkey)"
		}
		categorized[category] = append(categorized[category], method)
	}

	// Display the command according to their categories.
	categoryTitles := make([]string, numCategories)
	categoryTitles[categoryQuery] = "Query and simnet commands:"
	categoryTitles[categorySigned] = "Ledger commands:"
	for category := 0; category < numCategories; category++ {
		fmt.Println(categoryTitles[category])
		for _, method := range categorized[category] {
			fmt.Println(method)
		}
		fmt.Println()
	}
}

// config defines the configuration options for stakingctl.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	ListCommands  bool   `short:"l" long:"listcommands" description:"List all of the supported commands and exit"`
	NoTLS         bool   `long:"notls" description:"Disable TLS"`
	TLSSkipVerify bool   `long:"skipverify" description:"Do not verify tls certificates (not recommended!)"`
	Proxy         string `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyPass     string `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	ProxyUser     string `long:"proxyuser" description:"Username for proxy server"`
	RPCServer     string `short:"s" long:"rpcserver" description:"RPC server to connect to"`
	RPCCert       string `short:"c" long:"rpccert" description:"RPC server certificate chain for validation"`
	RPCPassword   string `short:"P" long:"rpcpass" default-mask:"-" description:"RPC password"`
	RPCUser       string `short:"u" long:"rpcuser" description:"RPC username"`
	PrivKey       string `long:"privkey" default-mask:"-" description:"Hex encoded secp256k1 private key signing ledger commands"`
	RawAmounts    bool   `long:"raw" description:"Amounts and rates are raw 1e18 fixed-point integers instead of decimal token units"`
	SimNet        bool   `long:"simnet" description:"Connect to the simulation network"`
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
}

// cleanAndExpandPath expands environement variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(stakingctlHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
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
// The above results in functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options.  Command line options always take precedence.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile: defaultConfigFile,
		RPCServer:  defaultRPCServer,
		RPCCert:    defaultRPCCertFile,
	}

	// Pre-parse the command line options to see if an alternative config
	// file, the version flag, or the list commands flag was specified.  Any
	// errors aside from the help message error can be ignored here since
	// they will be caught by the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Amounts and rates are decimal "+
				"token units unless --raw is given, e.g. a 5% "+
				"rate is 0.05.")
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show options", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Show the available commands and exit if the associated flag was
	// specified.
	if preCfg.ListCommands {
		listCommands()
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n",
				err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	// Handle environment variable expansion in the RPC certificate path.
	cfg.RPCCert = cleanAndExpandPath(cfg.RPCCert)

	// Add default port to RPC server based on --simnet
	defaultPort := chaincfg.MainNetParams.DefaultRPCPort
	if cfg.SimNet {
		defaultPort = chaincfg.SimNetParams.DefaultRPCPort
	}
	cfg.RPCServer, err = utils.NormalizeAddress(cfg.RPCServer, defaultPort)
	if err != nil {
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
