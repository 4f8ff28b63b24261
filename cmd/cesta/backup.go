package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/cesta/internal/backup"
	"github.com/dukerupert/cesta/internal/database"
	"github.com/dukerupert/cesta/internal/store"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted database backups to S3-compatible storage",
	}
	cmd.PersistentFlags().String("passphrase", "", "backup passphrase (default: backup.passphrase)")

	cmd.AddCommand(backupRunCmd())
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupRestoreCmd())
	return cmd
}

func passphrase(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("passphrase")
	if p == "" {
		p = cfg.Backup.Passphrase
	}
	if p == "" {
		return "", fmt.Errorf("a passphrase is required: use --passphrase or set backup.passphrase")
	}
	return p, nil
}

func withManager(fn func(*backup.Manager) error) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	m := backup.NewManager(cfg.Backup, db, store.NewBackupStore(db), store.NewSettingsStore(db), nil)
	return fn(m)
}

func backupRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Take a backup now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pass, err := passphrase(cmd)
			if err != nil {
				return err
			}
			return withManager(func(m *backup.Manager) error {
				b, err := m.RunNow(cmd.Context(), pass)
				if err != nil {
					return err
				}
				if err := m.Cleanup(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backup %d uploaded: %s (%d bytes)\n", b.ID, b.S3Key, b.SizeBytes)
				return nil
			})
		},
	}
}

func backupListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(func(m *backup.Manager) error {
				backups, err := m.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No backups yet."))
					return nil
				}

				rows := make([][]string, 0, len(backups))
				for _, b := range backups {
					took := "-"
					if d := b.Duration(); d > 0 {
						took = d.Round(time.Millisecond).String()
					}
					rows = append(rows, []string{
						strconv.FormatInt(b.ID, 10), b.CreatedAt.Format("2006-01-02 15:04"),
						string(b.Status), strconv.FormatInt(b.SizeBytes, 10), took,
					})
				}
				writeTable(cmd.OutOrStdout(), header, []string{"ID", "Created", "Status", "Size", "Took"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of backups to show")
	return cmd
}

func backupRestoreCmd() *cobra.Command {
	var dst string
	cmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Download and decrypt a backup into a database file",
		Long: `Restore writes the decrypted database next to the live one (or to --to).
Stop the server and move the restored file over the database path to switch to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}
			pass, err := passphrase(cmd)
			if err != nil {
				return err
			}
			if dst == "" {
				dst = cfg.DBPath + ".restored"
			}
			if dst == cfg.DBPath {
				return fmt.Errorf("refusing to overwrite the open database %s", dst)
			}
			return withManager(func(m *backup.Manager) error {
				if err := m.Restore(cmd.Context(), id, pass, dst); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backup %d restored to %s\n", id, dst)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dst, "to", "", "destination path (default: <db_path>.restored)")
	return cmd
}
