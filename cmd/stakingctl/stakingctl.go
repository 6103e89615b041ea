package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/joltify-finance/token-staking/stakingjson"
	"github.com/joltify-finance/token-staking/utils"
)

const (
	showHelpMessage = "Specify -h to show available options"
	listCmdMessage  = "Specify -l to list available commands"
)

// scaledParams lists, per method, the positional parameters given in decimal
// token units on the command line.
var scaledParams = map[string][]int{
	"deposit":                {0},
	"withdraw":               {0},
	"faucet":                 {1},
	"setforcedwithdrawalfee": {0},
	"setapr":                 {0, 1, 2},
	"setbasicapr":            {0},
	"setmonthlydescrate":     {0},
	"settotalsupplyfactor":   {0, 1, 2},
}

// commandUsage display the usage for a specific command.
func commandUsage(method string) {
	usage, err := stakingjson.MethodUsageText(method)
	if err != nil {
		// This should never happen since the method was already checked
		// before calling this function, but be safe.
		fmt.Fprintln(os.Stderr, "Failed to obtain command usage:", err)
		return
	}

	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintf(os.Stderr, "  %s\n", usage)
}

// usage displays the general usage when the help flag is not displayed and
// and an invalid command was specified.  The commandUsage function is used
// instead when a valid command was specified.
func usage(errorMessage string) {
	appName := strings.TrimSuffix(os.Args[0], ".exe")
	fmt.Fprintln(os.Stderr, errorMessage)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintf(os.Stderr, "  %s [OPTIONS] <command> <args...>\n\n",
		appName)
	fmt.Fprintln(os.Stderr, showHelpMessage)
	fmt.Fprintln(os.Stderr, listCmdMessage)
}

// scaleArgs converts the decimal amounts and rates of method to raw 1e18
// fixed-point integers.
func scaleArgs(method string, args []string) ([]string, error) {
	out := append([]string(nil), args...)
	for _, i := range scaledParams[method] {
		if i >= len(out) {
			continue
		}
		v, err := utils.ParseUnits(out[i])
		if err != nil {
			return nil, fmt.Errorf("parameter #%d: %v", i+1, err)
		}
		out[i] = v.String()
	}
	return out, nil
}

// signCmd fills in the signature of a ledger command with key.
func signCmd(method string, cmd interface{}, privKey string) error {
	signed, ok := cmd.(stakingjson.SignedCmd)
	if !ok {
		return fmt.Errorf("%s is not a signed command", method)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKey, "0x"))
	if err != nil {
		return fmt.Errorf("invalid --privkey: %v", err)
	}
	_, timestamp, _ := signed.Signer()
	digest := stakingjson.SigningDigest(method, signed.SigningParams(), timestamp)
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return err
	}
	signed.SetSignature(hex.EncodeToString(sig))
	return nil
}

// buildCmd converts the command line arguments to the command for method,
// signing it when the method changes ledger state.
func buildCmd(cfg *config, method string, args []string, now time.Time) (interface{}, error) {
	usageFlags, err := stakingjson.MethodUsageFlags(method)
	if err != nil {
		return nil, err
	}
	if usageFlags&unusableFlags != 0 {
		return nil, fmt.Errorf("the '%s' command can only be used via "+
			"websockets", method)
	}

	if !cfg.RawAmounts {
		if args, err = scaleArgs(method, args); err != nil {
			return nil, err
		}
	}

	params := make([]interface{}, 0, len(args)+3)
	for _, arg := range args {
		params = append(params, arg)
	}

	isSigned := usageFlags&stakingjson.UFSigned != 0
	if isSigned {
		if cfg.PrivKey == "" {
			return nil, fmt.Errorf("the '%s' command must be signed, "+
				"specify --privkey", method)
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid --privkey: %v", err)
		}
		sender := crypto.PubkeyToAddress(key.PublicKey).Hex()
		params = append(params, sender, now.Unix(), "")
	}

	cmd, err := stakingjson.NewCmd(method, params...)
	if err != nil {
		return nil, err
	}
	if isSigned {
		if err := signCmd(method, cmd, cfg.PrivKey); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

func main() {
	cfg, args, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}
	if len(args) < 1 {
		usage("No command specified")
		os.Exit(1)
	}

	// Ensure the specified method identifies a valid registered command.
	method := args[0]
	if _, err := stakingjson.MethodUsageFlags(method); err != nil {
		fmt.Fprintf(os.Stderr, "Unrecognized command '%s'\n", method)
		fmt.Fprintln(os.Stderr, listCmdMessage)
		os.Exit(1)
	}

	// Convert remaining command line args to a slice of strings.  Arguments
	// set to "-" are read from stdin.
	var params []string
	for _, arg := range args[1:] {
		if arg == "-" {
			param, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && err != io.EOF {
				fmt.Fprintf(os.Stderr, "Failed to read data "+
					"from stdin: %v\n", err)
				os.Exit(1)
			}
			if err == io.EOF && len(param) == 0 {
				fmt.Fprintln(os.Stderr, "Not enough lines "+
					"provided on stdin")
				os.Exit(1)
			}
			param = strings.TrimRight(param, "\r\n")
			params = append(params, param)
			continue
		}

		params = append(params, arg)
	}

	cmd, err := buildCmd(cfg, method, params, time.Now())
	if err != nil {
		// Show the error along with its error code when it's a
		// stakingjson.Error as it reallistcally will always be since
		// the NewCmd function is only supposed to return errors of that
		// type.
		var jerr stakingjson.Error
		if errors.As(err, &jerr) {
			fmt.Fprintf(os.Stderr, "%s command: %v (code: %s)\n",
				method, err, jerr.ErrorCode)
			commandUsage(method)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "%s command: %v\n", method, err)
		os.Exit(1)
	}

	// Marshal the command into a JSON-RPC byte slice in preparation for
	// sending it to the RPC server.
	marshalledJSON, err := stakingjson.MarshalCmd(1, cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Send the JSON-RPC request to the server using the user-specified
	// connection configuration.
	result, err := sendPostRequest(marshalledJSON, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Choose how to display the result based on its type.
	strResult := string(result)
	if strings.HasPrefix(strResult, "{") || strings.HasPrefix(strResult, "[") {
		var dst bytes.Buffer
		if err := json.Indent(&dst, result, "", "  "); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to format result: %v",
				err)
			os.Exit(1)
		}
		fmt.Println(dst.String())

	} else if strings.HasPrefix(strResult, `"`) {
		var str string
		if err := json.Unmarshal(result, &str); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to unmarshal result: %v",
				err)
			os.Exit(1)
		}
		fmt.Println(str)

	} else if strResult != "null" {
		fmt.Println(strResult)
	}
}
