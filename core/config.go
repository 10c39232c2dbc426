package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	// ClockConfig holds the sync policy of every DurationClock built by the apps.
	ClockConfig struct {
		Source            string // ntp | system | http
		NTPServer         string
		ServerURL         string // base URL of the API, used by the http source
		TickInterval      time.Duration
		StaleAfter        time.Duration
		SyncTimeout       time.Duration
		CompensateLatency bool
		DisplayOffset     time.Duration
	}

	ScheduleConfig struct {
		Lookahead time.Duration
		CacheTTL  time.Duration
	}

	EmailConfig struct {
		DefaultFromEmail string
		SendgridApiKey   string
		Announce         []string // recipients of exam announcements
	}

	Config struct {
		AppName      string
		Build        string
		Env          string
		Debug        bool
		TestMode     bool
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Clock    ClockConfig
		Schedule ScheduleConfig
		Email    EmailConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Grellic")
	conf.SetDefault("build", "develop")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 5*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "grellic")
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("clock.source", "system")
	conf.SetDefault("clock.ntpServer", "time.google.com")
	conf.SetDefault("clock.serverURL", "http://localhost:8000")
	conf.SetDefault("clock.tickInterval", 10*time.Second)
	conf.SetDefault("clock.staleAfter", 10*time.Minute)
	conf.SetDefault("clock.syncTimeout", 5*time.Second)
	conf.SetDefault("clock.compensateLatency", false)
	conf.SetDefault("clock.displayOffset", 8*time.Hour)

	conf.SetDefault("schedule.lookahead", 24*time.Hour)
	conf.SetDefault("schedule.cacheTTL", 10*time.Minute)

	conf.SetDefault("email.defaultFromEmail", "noreply@localhost")
	conf.SetDefault("email.sendgridApiKey", "")
	conf.SetDefault("email.announce", []string{})

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if root, ok := findRoot(); ok {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ReadTimeout:     conf.GetDuration("server.readTimeout"),
			WriteTimeout:    conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("database.engine"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetInt("database.port"),
			Name:       conf.GetString("database.name"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			DisableTLS: conf.GetBool("database.disableTLS"),
		},
		Clock: ClockConfig{
			Source:            CleanString(conf.GetString("clock.source"), true /* lower */),
			NTPServer:         conf.GetString("clock.ntpServer"),
			ServerURL:         conf.GetString("clock.serverURL"),
			TickInterval:      conf.GetDuration("clock.tickInterval"),
			StaleAfter:        conf.GetDuration("clock.staleAfter"),
			SyncTimeout:       conf.GetDuration("clock.syncTimeout"),
			CompensateLatency: conf.GetBool("clock.compensateLatency"),
			DisplayOffset:     conf.GetDuration("clock.displayOffset"),
		},
		Schedule: ScheduleConfig{
			Lookahead: conf.GetDuration("schedule.lookahead"),
			CacheTTL:  conf.GetDuration("schedule.cacheTTL"),
		},
		Email: EmailConfig{
			DefaultFromEmail: conf.GetString("email.defaultFromEmail"),
			SendgridApiKey:   conf.GetString("email.sendgridApiKey"),
			Announce:         conf.GetStringSlice("email.announce"),
		},
	}
}
