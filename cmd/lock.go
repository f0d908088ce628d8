/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/ikasoba/notebox/config"
	"github.com/ikasoba/notebox/lock"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Protects the notes with a password.",
	Long: `Protects the notes with a password. Once set, every command needs the
password in NOTEBOX_PASSWORD (or in a .env file).`,
}

var lockSetCmd = &cobra.Command{
	Use:   "set <password>",
	Short: "Sets or replaces the password.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveLock(cmd, args[0])
	},
}

var lockClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Removes the password.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveLock(cmd, "")
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.AddCommand(lockSetCmd, lockClearCmd)
}

// saveLock checks the current password, if any, before replacing it.
func saveLock(cmd *cobra.Command, password string) error {
	_, path, conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gate := lock.New(conf.Lock.PasswordHash, lock.Static(conf.Password))
	if err := gate.Check(cmd.Context()); err != nil {
		return err
	}

	conf.Lock.PasswordHash = ""
	if password != "" {
		if conf.Lock.PasswordHash, err = lock.Hash(password); err != nil {
			return err
		}
	}

	if err := config.Save(path, conf); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "saved", path)
	return nil
}
