/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Creates, lists and restores JSON backups.",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Writes a backup of every note.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.backups.CreateLocalBackup(cmd.Context())
		if err != nil {
			return err
		}

		if keep := a.conf.Backup.Keep; keep > 0 {
			if _, err := a.backups.Prune(keep); err != nil {
				a.log.Warn().Err(err).Msg("prune backups")
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file|latest>",
	Short: "Replaces every note with the contents of a backup.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		path := args[0]
		if path == "latest" {
			list, err := a.backups.ListBackups()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("no backups in %s", a.backups.Dir())
			}
			path = list[0].Path
		}

		count, err := a.backups.RestoreFromBackup(cmd.Context(), path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "restored %d notes from %s\n", count, path)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists backups, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.backups.ListBackups()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, info := range list {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Path, info.Size, info.ModTime.Format(time.DateTime))
		}
		return tw.Flush()
	},
}

var backupSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reports what a cloud sync would transfer.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.backups.SyncWithCloud(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "local notes: %d, uploaded: %d, downloaded: %d\n",
			res.LocalNotes, res.Uploaded, res.Downloaded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupRestoreCmd, backupListCmd, backupSyncCmd)
}
