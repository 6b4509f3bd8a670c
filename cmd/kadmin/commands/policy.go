package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/authentik-community/kadmin-go/pkg/kadm5"
)

var listPolsCmd = &cobra.Command{
	Use:     "listpols [pattern]",
	Aliases: []string{"list_policies"},
	Short:   "List password policies matching a pattern",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}
		names, err := kadm.ListPolicies(cmd.Context(), pattern)
		if err != nil {
			return err
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var getPolCmd = &cobra.Command{
	Use:     "getpol <policy>",
	Aliases: []string{"get_policy"},
	Short:   "Show a password policy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		pol, err := kadm.GetPolicy(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if pol == nil {
			return fmt.Errorf("policy %q does not exist", args[0])
		}
		cmd.Printf("Policy: %s\n", pol.Name)
		cmd.Printf("Minimum password life: %s\n", formatDuration(pol.PasswordMinLife))
		cmd.Printf("Maximum password life: %s\n", formatDuration(pol.PasswordMaxLife))
		cmd.Printf("Minimum password length: %d\n", pol.PasswordMinLength)
		cmd.Printf("Minimum character classes: %d\n", pol.PasswordMinClasses)
		cmd.Printf("Password history kept: %d\n", pol.PasswordHistoryNum)
		cmd.Printf("Maximum failures before lockout: %d\n", pol.PasswordMaxFail)
		cmd.Printf("Failure count interval: %s\n", formatDuration(pol.PasswordFailCountInterval))
		cmd.Printf("Lockout duration: %s\n", formatDuration(pol.PasswordLockoutDuration))
		return nil
	},
}

var (
	addPolMinLength  int64
	addPolMinClasses int64
	addPolHistory    int64
	addPolMinLife    time.Duration
	addPolMaxLife    time.Duration
	addPolMaxFail    uint32
)

var addPolCmd = &cobra.Command{
	Use:     "addpol <policy>",
	Aliases: []string{"add_policy"},
	Short:   "Create a password policy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := kadm5.NewPolicy(args[0])
		if addPolMinLength != 0 {
			b = b.PasswordMinLength(addPolMinLength)
		}
		if addPolMinClasses != 0 {
			b = b.PasswordMinClasses(addPolMinClasses)
		}
		if addPolHistory != 0 {
			b = b.PasswordHistoryNum(addPolHistory)
		}
		if addPolMinLife != 0 {
			b = b.PasswordMinLife(addPolMinLife)
		}
		if addPolMaxLife != 0 {
			b = b.PasswordMaxLife(addPolMaxLife)
		}
		if addPolMaxFail != 0 {
			b = b.PasswordMaxFail(addPolMaxFail)
		}

		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		if err := kadm.AddPolicy(cmd.Context(), b); err != nil {
			return err
		}
		cmd.Printf("Policy %q created.\n", args[0])
		return nil
	},
}

var delPolCmd = &cobra.Command{
	Use:     "delpol <policy>",
	Aliases: []string{"delete_policy"},
	Short:   "Delete a password policy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		if err := kadm.DeletePolicy(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Policy %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	addPolCmd.Flags().Int64Var(&addPolMinLength, "minlength", 0, "minimum password length")
	addPolCmd.Flags().Int64Var(&addPolMinClasses, "minclasses", 0, "minimum number of character classes")
	addPolCmd.Flags().Int64Var(&addPolHistory, "history", 0, "number of past keys kept")
	addPolCmd.Flags().DurationVar(&addPolMinLife, "minlife", 0, "minimum password life, e.g. 24h")
	addPolCmd.Flags().DurationVar(&addPolMaxLife, "maxlife", 0, "maximum password life, e.g. 2160h")
	addPolCmd.Flags().Uint32Var(&addPolMaxFail, "maxfailure", 0, "failures before lockout, 0 disables")
}
