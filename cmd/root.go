/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ikasoba/notebox/backup"
	"github.com/ikasoba/notebox/config"
	"github.com/ikasoba/notebox/core"
	"github.com/ikasoba/notebox/lock"
	"github.com/ikasoba/notebox/logger"
	"github.com/ikasoba/notebox/templates"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "notebox",
	Short:         "A local notes database with templates and writing helpers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	defaultHome, err := config.DefaultHome()
	if err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().String("home", defaultHome, "Specify note directory.")
	rootCmd.PersistentFlags().String("config", "", "Config file. Defaults to <home>/config.yaml.")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error).")
}

// app bundles everything a command needs. Close releases the store.
type app struct {
	home       string
	configPath string
	conf       *config.Config
	log        zerolog.Logger
	logData    *logger.LogData

	store     *core.Store
	notes     *core.Notes
	templates *templates.Repository
	backups   *backup.Manager
	released  bool
}

// loadConfig resolves home and config without opening the database.
func loadConfig(cmd *cobra.Command) (home, path string, conf *config.Config, err error) {
	flags := cmd.Flags()

	home, err = flags.GetString("home")
	if err != nil {
		return
	}

	if err = config.LoadEnv(home); err != nil {
		return
	}

	// .env may carry NOTEBOX_HOME when --home was left at its default
	if !flags.Changed("home") {
		if h := os.Getenv("NOTEBOX_HOME"); h != "" {
			home = h
		}
	}

	path, err = flags.GetString("config")
	if err != nil {
		return
	}
	if path == "" {
		path = filepath.Join(home, config.FileName)
	}

	conf, err = config.Load(home, path)
	return
}

func openApp(cmd *cobra.Command) (*app, error) {
	home, path, conf, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = conf.Log.Level
	}

	logData, err := logger.New().FromPath(conf.Log.File).Level(level).Pretty(true).Make()
	if err != nil {
		return nil, err
	}

	a := &app{
		home:       home,
		configPath: path,
		conf:       conf,
		log:        logData.Logger,
		logData:    logData,
	}

	gate := lock.New(conf.Lock.PasswordHash, func(context.Context) (string, error) {
		if conf.Password == "" {
			return "", errors.New("set NOTEBOX_PASSWORD to unlock")
		}
		return conf.Password, nil
	})
	if err := gate.Check(cmd.Context()); err != nil {
		logData.Close()
		return nil, err
	}

	a.store, err = core.New(home, core.WithLogger(a.log))
	if err != nil {
		logData.Close()
		return nil, err
	}

	a.notes = core.NewNotes(a.store)
	a.templates = templates.NewRepository(a.store)
	a.backups = backup.NewManager(a.notes, conf.Backup.Dir, a.log)

	if _, err := a.templates.InitializeBuiltInTemplates(); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) Close() {
	a.releaseStore()
	a.logData.Close()
}

// releaseStore closes the database early so other processes can open it.
// The store must not be queried afterwards.
func (a *app) releaseStore() {
	if a.released {
		return
	}
	a.released = true

	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
}

// resolve finds a note by id, failing when it does not exist.
func (a *app) resolve(id string) (*core.Note, error) {
	n, err := a.notes.Get(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, core.Errorf(core.KindNotFound, nil, "note %s not found", id)
	}
	return n, nil
}
