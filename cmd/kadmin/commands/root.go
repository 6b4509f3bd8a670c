// Package commands implements the CLI commands for Kerberos realm
// administration.
package commands

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kadmin",
	Short: "Kerberos realm administration",
	Long: `kadmin manages principals and password policies in a Kerberos realm
through the kadm5 administration library (MIT krb5 or Heimdal,
selected at build time).

Credentials are taken from, in order of precedence: --keytab,
--use-ccache, or an interactive password prompt for --principal.
Every flag can also be set through the environment with a KADMIN_
prefix, e.g. KADMIN_REALM.

Use "kadmin [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("realm", "r", "", "realm to administer (default: from krb5.conf)")
	pf.StringP("principal", "p", "", "client principal to authenticate as")
	pf.String("admin-server", "", "admin server host, overriding krb5.conf")
	pf.Int("kadmind-port", 0, "kadmind port, overriding krb5.conf")
	pf.StringP("keytab", "k", "", "authenticate with this keytab instead of a password")
	pf.BoolP("use-ccache", "c", false, "authenticate with the default credential cache")
	pf.Bool("local", false, "operate on the local database, bypassing kadmind")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("KADMIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{
		"realm", "principal", "admin-server", "kadmind-port",
		"keytab", "use-ccache", "local", "verbose",
	} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listPrincsCmd)
	rootCmd.AddCommand(getPrincCmd)
	rootCmd.AddCommand(addPrincCmd)
	rootCmd.AddCommand(delPrincCmd)
	rootCmd.AddCommand(renamePrincCmd)
	rootCmd.AddCommand(cpwCmd)
	rootCmd.AddCommand(listPolsCmd)
	rootCmd.AddCommand(getPolCmd)
	rootCmd.AddCommand(addPolCmd)
	rootCmd.AddCommand(delPolCmd)
	rootCmd.AddCommand(privsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("kadmin %s (%s)\n", Version, Commit)
	},
}
