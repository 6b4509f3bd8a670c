package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/authentik-community/kadmin-go/pkg/kadm5"
)

var listPrincsCmd = &cobra.Command{
	Use:     "listprincs [pattern]",
	Aliases: []string{"list_principals"},
	Short:   "List principals matching a pattern",
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
		names, err := kadm.ListPrincipals(cmd.Context(), pattern)
		if err != nil {
			return err
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var getPrincCmd = &cobra.Command{
	Use:     "getprinc <principal>",
	Aliases: []string{"get_principal"},
	Short:   "Show a principal's entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		p, err := kadm.GetPrincipal(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("principal %q does not exist", args[0])
		}
		printPrincipal(cmd, p)
		return nil
	},
}

func printPrincipal(cmd *cobra.Command, p *kadm5.Principal) {
	cmd.Printf("Principal: %s\n", p.Name)
	cmd.Printf("Expiration date: %s\n", formatTime(p.ExpireTime))
	cmd.Printf("Last password change: %s\n", formatTime(p.LastPasswordChange))
	cmd.Printf("Password expiration date: %s\n", formatTime(p.PasswordExpiration))
	cmd.Printf("Maximum ticket life: %s\n", formatDuration(p.MaxLife))
	cmd.Printf("Maximum renewable life: %s\n", formatDuration(p.MaxRenewableLife))
	cmd.Printf("Last modified: %s (%s)\n", formatTime(p.ModifiedAt), p.ModifiedBy)
	cmd.Printf("Last successful authentication: %s\n", formatTime(p.LastSuccess))
	cmd.Printf("Last failed authentication: %s\n", formatTime(p.LastFailed))
	cmd.Printf("Failed password attempts: %d\n", p.FailAuthCount)
	cmd.Printf("Key version: %d\n", p.Kvno)
	if p.Policy != "" {
		cmd.Printf("Policy: %s\n", p.Policy)
	} else {
		cmd.Println("Policy: [none]")
	}
	cmd.Printf("Attributes: %#x\n", int32(p.Attributes))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "[never]"
	}
	return t.Format(time.RFC1123)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "[none]"
	}
	return d.String()
}

var (
	addPrincRandKey    bool
	addPrincNoKey      bool
	addPrincPassword   string
	addPrincPolicy     string
	addPrincNoPolicy   bool
	addPrincMaxLife    time.Duration
	addPrincExpireTime string
	addPrincKeySalts   string
)

var addPrincCmd = &cobra.Command{
	Use:     "addprinc <principal>",
	Aliases: []string{"add_principal", "ank"},
	Short:   "Create a principal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := kadm5.NewPrincipal(args[0])
		if addPrincKeySalts != "" {
			ks, err := kadm5.ParseKeySalts(addPrincKeySalts)
			if err != nil {
				return fmt.Errorf("parse -e: %w", err)
			}
			b = b.KeySalts(ks)
		}
		switch {
		case addPrincRandKey:
			b = b.RandomKey()
		case addPrincNoKey:
			b = b.NoKey()
		case addPrincPassword != "":
			b = b.Password(addPrincPassword)
		default:
			pw, err := promptPassword(args[0])
			if err != nil {
				return err
			}
			b = b.Password(pw)
		}
		if addPrincPolicy != "" {
			b = b.Policy(addPrincPolicy)
		}
		if addPrincNoPolicy {
			b = b.NoPolicy()
		}
		if addPrincMaxLife != 0 {
			b = b.MaxLife(addPrincMaxLife)
		}
		if addPrincExpireTime != "" {
			expire, err := time.Parse(time.RFC3339, addPrincExpireTime)
			if err != nil {
				return fmt.Errorf("parse --expire: %w", err)
			}
			b = b.ExpireTime(expire)
		}

		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		if err := kadm.AddPrincipal(cmd.Context(), b); err != nil {
			return err
		}
		cmd.Printf("Principal %q created.\n", args[0])
		return nil
	},
}

var delPrincCmd = &cobra.Command{
	Use:     "delprinc <principal>",
	Aliases: []string{"delete_principal"},
	Short:   "Delete a principal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		if err := kadm.DeletePrincipal(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Principal %q deleted.\n", args[0])
		return nil
	},
}

var renamePrincCmd = &cobra.Command{
	Use:     "renameprinc <old> <new>",
	Aliases: []string{"rename_principal"},
	Short:   "Rename a principal",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		if err := kadm.RenamePrincipal(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Principal %q renamed to %q.\n", args[0], args[1])
		return nil
	},
}

var (
	cpwRandKey  bool
	cpwKeySalts string
)

var cpwCmd = &cobra.Command{
	Use:     "cpw <principal>",
	Aliases: []string{"change_password"},
	Short:   "Change a principal's password",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var keysalts *kadm5.KeySalts
		if cpwKeySalts != "" {
			ks, err := kadm5.ParseKeySalts(cpwKeySalts)
			if err != nil {
				return fmt.Errorf("parse -e: %w", err)
			}
			keysalts = ks
		}

		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		if cpwRandKey {
			if err := kadm.RandomizeKeys(cmd.Context(), args[0], keysalts); err != nil {
				return err
			}
			cmd.Printf("Keys for %q randomized.\n", args[0])
			return nil
		}
		pw, err := promptPassword(args[0])
		if err != nil {
			return err
		}
		if err := kadm.ChangePassword(cmd.Context(), args[0], pw); err != nil {
			return err
		}
		cmd.Printf("Password for %q changed.\n", args[0])
		return nil
	},
}

var privsCmd = &cobra.Command{
	Use:     "privs",
	Aliases: []string{"get_privs"},
	Short:   "Show the privileges granted to this session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kadm, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = kadm.Close() }()

		privs, err := kadm.Privileges(cmd.Context())
		if err != nil {
			return err
		}
		var granted []string
		for _, p := range []struct {
			bit  kadm5.Privileges
			name string
		}{
			{kadm5.PrivInquire, "inquire"},
			{kadm5.PrivAdd, "add"},
			{kadm5.PrivModify, "modify"},
			{kadm5.PrivDelete, "delete"},
		} {
			if privs.Has(p.bit) {
				granted = append(granted, p.name)
			}
		}
		if len(granted) == 0 {
			cmd.Println("No privileges granted.")
			return nil
		}
		for _, name := range granted {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	addPrincCmd.Flags().BoolVar(&addPrincRandKey, "randkey", false, "generate a random key instead of prompting for a password")
	addPrincCmd.Flags().BoolVar(&addPrincNoKey, "nokey", false, "create the principal without keys")
	addPrincCmd.Flags().StringVar(&addPrincPassword, "pw", "", "set this password instead of prompting")
	addPrincCmd.Flags().StringVar(&addPrincPolicy, "policy", "", "attach this password policy")
	addPrincCmd.Flags().BoolVar(&addPrincNoPolicy, "clearpolicy", false, "do not attach any policy")
	addPrincCmd.Flags().DurationVar(&addPrincMaxLife, "maxlife", 0, "maximum ticket life, e.g. 10h")
	addPrincCmd.Flags().StringVar(&addPrincExpireTime, "expire", "", "principal expiration time (RFC 3339)")
	addPrincCmd.Flags().StringVarP(&addPrincKeySalts, "keysalts", "e", "", "keysalt list for randomized keys, e.g. aes256-cts:normal,aes128-cts:normal")

	cpwCmd.Flags().BoolVar(&cpwRandKey, "randkey", false, "randomize the keys instead of setting a password")
	cpwCmd.Flags().StringVarP(&cpwKeySalts, "keysalts", "e", "", "keysalt list for randomized keys")
}
