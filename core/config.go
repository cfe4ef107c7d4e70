package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DisableReqLogs  bool
		CookieSecure    bool
		SessionMaxAge   time.Duration
		ShutdownTimeout time.Duration
	}

	WizardConfig struct {
		SubmitDelay time.Duration
		DraftDelay  time.Duration
	}

	StorageConfig struct {
		// LocalPath is the file backing the CLI's local storage.
		LocalPath string
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server  ServerConfig
		Wizard  WizardConfig
		Storage StorageConfig
	}
)

// NewConfig loads the app configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed by the upper-cased ENV value, eg. DEV_SECRETKEY.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:8000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("server.cookieSecure", false)
	conf.SetDefault("server.sessionMaxAge", 30*24*time.Hour)
	conf.SetDefault("server.shutdownTimeout", 10*time.Second)
	conf.SetDefault("wizard.submitDelay", 1500*time.Millisecond)
	conf.SetDefault("wizard.draftDelay", 1000*time.Millisecond)
	conf.SetDefault("storage.localPath", defaultLocalPath())

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
		conf.SetDefault("wizard.submitDelay", time.Duration(0))
		conf.SetDefault("wizard.draftDelay", time.Duration(0))
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: *fromEmail,
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
			CookieSecure:    conf.GetBool("server.cookieSecure"),
			SessionMaxAge:   conf.GetDuration("server.sessionMaxAge"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Wizard: WizardConfig{
			SubmitDelay: conf.GetDuration("wizard.submitDelay"),
			DraftDelay:  conf.GetDuration("wizard.draftDelay"),
		},
		Storage: StorageConfig{
			LocalPath: conf.GetString("storage.localPath"),
		},
	}
}

// configDir is CONFIG_DIR when set, "./config" otherwise.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}

func defaultLocalPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "darasa", "local-storage.json")
}
