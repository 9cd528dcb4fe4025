package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PauloFerreira25/velostream/driver/codec"
	"github.com/PauloFerreira25/velostream/driver/common"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupDriverFlags adds the common driver connection flags to a command
func SetupDriverFlags(cmd *cobra.Command) {
	key := "hosts"
	cmd.PersistentFlags().String(key, "localhost:8529", WrapString("The database endpoints as a comma-separated list of host:port pairs"))

	key = "topology"
	cmd.PersistentFlags().String(key, "single_server", WrapString("Deployment topology (single_server, active_failover, cluster)"))

	key = "conns-per-host"
	cmd.PersistentFlags().Int(key, 1, WrapString("Connections the pool maintains per host"))

	key = "executors"
	cmd.PersistentFlags().Int(key, 0, WrapString("Size of the executor fleet, 0 for one per CPU"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 30, WrapString("The timeout in seconds of every operation"))

	key = "chunk-size"
	cmd.PersistentFlags().Int(key, common.DefaultChunkSize, WrapString("Maximum content bytes per VelocyStream chunk"))

	key = "ttl"
	cmd.PersistentFlags().Int(key, 0, WrapString("Connection time to live in seconds, 0 to disable recycling"))

	key = "tls"
	cmd.PersistentFlags().Bool(key, false, WrapString("Connect with TLS"))

	key = "user"
	cmd.PersistentFlags().String(key, "", WrapString("User name for basic authentication"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("Password for basic authentication"))

	key = "jwt"
	cmd.PersistentFlags().String(key, "", WrapString("JWT token authentication, overrides user/password"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("velostream")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds the flags of cmd to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetCommunicationConfig reads the driver configuration from viper
func GetCommunicationConfig() (common.CommunicationConfig, error) {
	topology, err := common.ParseTopology(viper.GetString("topology"))
	if err != nil {
		return common.CommunicationConfig{}, err
	}

	var hosts []common.HostDescription
	for _, s := range strings.Split(viper.GetString("hosts"), ",") {
		host, err := common.ParseHost(s, common.DefaultPort)
		if err != nil {
			return common.CommunicationConfig{}, fmt.Errorf("invalid hosts flag: %w", err)
		}
		hosts = append(hosts, host)
	}

	conf := common.CommunicationConfig{
		Hosts:              hosts,
		ConnectionsPerHost: viper.GetInt("conns-per-host"),
		Topology:           topology,
		Executors:          viper.GetInt("executors"),
		Connection: common.ConnectionConfig{
			Timeout:   time.Duration(viper.GetInt("timeout")) * time.Second,
			ChunkSize: viper.GetInt("chunk-size"),
			TTL:       time.Duration(viper.GetInt("ttl")) * time.Second,
			UseTLS:    viper.GetBool("tls"),
		},
	}

	if token := viper.GetString("jwt"); token != "" {
		conf.Authentication = codec.NewJWTAuthentication(token)
	} else if user := viper.GetString("user"); user != "" {
		conf.Authentication = codec.NewBasicAuthentication(user, viper.GetString("password"))
	}

	return conf, nil
}

// InitLogging configures the driver loggers from the log-level flag
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}
