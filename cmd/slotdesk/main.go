package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/slotdesk/internal/profile"
	"github.com/hrygo/slotdesk/server"
	"github.com/hrygo/slotdesk/store"
	"github.com/hrygo/slotdesk/store/db"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "slotdesk",
	Short: "A conversational appointment desk that books meetings in plain language.",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile, err := loadProfile()
		if err != nil {
			slog.Error("invalid profile", "error", err)
			os.Exit(1)
		}
		slog.SetDefault(newLogger(instanceProfile.Mode, os.Stdout))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			slog.Error("failed to open store", "error", err)
			return
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			_ = storeInstance.Close()
			return
		}

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			s.Shutdown(ctx)
			return
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("timezone", profile.DefaultTimezone)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database source name (aka. DSN)")
	flags.String("timezone", profile.DefaultTimezone, "default IANA timezone for conversations")
	flags.Int("business-open-hour", profile.DefaultBusinessOpenHour, "first bookable hour")
	flags.Int("business-close-hour", profile.DefaultBusinessCloseHour, "hour at which bookings stop")
	flags.Int("default-duration-minutes", profile.DefaultDurationMinutes, "meeting length when none is given")
	flags.String("calendar-backend", "store", "calendar backend: memory, store or google")
	flags.String("session-backend", "store", "session backend: memory, store or redis")

	for _, name := range []string{
		"mode", "addr", "port", "data", "driver", "dsn", "timezone",
		"business-open-hour", "business-close-hour", "default-duration-minutes",
		"calendar-backend", "session-backend",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("slotdesk")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(chatCmd)
}

// loadProfile merges flags, environment and defaults into a validated profile.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:                   viper.GetString("mode"),
		Addr:                   viper.GetString("addr"),
		Port:                   viper.GetInt("port"),
		Data:                   viper.GetString("data"),
		Driver:                 viper.GetString("driver"),
		DSN:                    viper.GetString("dsn"),
		Version:                version,
		Timezone:               viper.GetString("timezone"),
		BusinessOpenHour:       viper.GetInt("business-open-hour"),
		BusinessCloseHour:      viper.GetInt("business-close-hour"),
		DefaultDurationMinutes: viper.GetInt("default-duration-minutes"),
		CalendarBackend:        viper.GetString("calendar-backend"),
		SessionBackend:         viper.GetString("session-backend"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return storeInstance, nil
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("slotdesk %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		if p.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", p.DSN)
		}
	}
	fmt.Printf("Server running on port %d\n", p.Port)
	fmt.Printf("Calendar: %s, sessions: %s, timezone: %s\n", p.CalendarBackend, p.SessionBackend, p.Timezone)
}

func main() {
	preinitLogger()
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
