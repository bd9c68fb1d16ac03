package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"securedprefs/pkg/codec"
	"securedprefs/pkg/keystore"
	"securedprefs/pkg/prefs"
)

func kindUsage() string {
	names := make([]string, len(codec.Kinds))
	for i, k := range codec.Kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}

func (a *app) putCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <kind> <key> <value>",
		Short: "Store a typed value",
		Long:  "Store a typed value. kind is one of " + kindUsage() + "; object, list and map take JSON.",
		Args:  cobra.ExactArgs(3),
		RunE: a.withStore(func(cmd *cobra.Command, h *prefs.Handle, args []string) error {
			k, err := codec.ParseKind(args[0])
			if err != nil {
				return err
			}
			if err := putValue(h, k, args[1], args[2]); err != nil {
				return err
			}
			printf(cmd, "OK\n")
			return nil
		}),
	}

	// Everything after <kind> is positional, so "-42" is a value, not flags.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func (a *app) getCmd() *cobra.Command {
	var def string

	cmd := &cobra.Command{
		Use:   "get <kind> <key>",
		Short: "Read a typed value",
		Long:  "Read a typed value. kind is one of " + kindUsage() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: a.withStore(func(cmd *cobra.Command, h *prefs.Handle, args []string) error {
			k, err := codec.ParseKind(args[0])
			if err != nil {
				return err
			}
			out, err := getValue(h, k, args[1], def)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", out)
			return nil
		}),
	}

	cmd.Flags().StringVar(&def, "default", "", "Value returned when the key is missing")

	return cmd
}

func (a *app) containsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contains <key>",
		Short: "Check if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, h *prefs.Handle, args []string) error {
			ok, err := h.Contains(args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%t\n", ok)
			return nil
		}),
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, h *prefs.Handle, args []string) error {
			if err := h.Remove(args[0]); err != nil {
				return err
			}
			printf(cmd, "OK\n")
			return nil
		}),
	}
}

func (a *app) keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Create the master key, or verify the passphrase of an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			mk, err := keystore.CreateOrRetrieve(a.cfg.Security.KeyFile, a.cfg.Security.Passphrase)
			if err != nil {
				return fmt.Errorf("master key %s: %w", a.cfg.Security.KeyFile, err)
			}
			printf(cmd, "%s %s\n", mk.ID, a.cfg.Security.KeyFile)
			return nil
		},
	}
}
