package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/josephgoksu/tasksync/internal/config"
	"github.com/josephgoksu/tasksync/internal/logger"
	"github.com/josephgoksu/tasksync/types"
	"github.com/spf13/viper"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance of Validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(cfg *types.AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value: %v)", e.Namespace(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("data.file", config.DefaultDataFile)
	viper.SetDefault("data.format", config.DefaultDataFormat)
	viper.SetDefault("data.backupFile", "")
	viper.SetDefault("autosave.enabled", config.DefaultAutosaveEnabled)
	viper.SetDefault("autosave.interval", config.DefaultAutosaveInterval)
	viper.SetDefault("lock.timeout", config.DefaultLockTimeout)
	viper.SetDefault("log.level", config.DefaultLogLevel)
	viper.SetDefault("log.format", config.DefaultLogFormat)
}

// InitConfig reads in config file and ENV variables if set.
// It is registered with cobra.OnInitialize and exits on invalid configuration.
func InitConfig() {
	if err := loadConfig(); err != nil {
		HandleFatalError(err.Error(), err)
	}
}

// loadConfig populates GlobalAppConfig.
// Precedence: flags > env (.env included) > config file > defaults.
func loadConfig() error {
	// It's okay if .env doesn't exist.
	_ = godotenv.Load()

	viper.SetEnvPrefix(config.EnvPrefix)                   // e.g., TASKSYNC_VERBOSE
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // data.dir -> TASKSYNC_DATA_DIR
	viper.AutomaticEnv()

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		viper.SetConfigName(config.ConfigName)
		viper.SetConfigType("yaml")
		if info, err := os.Stat(config.LocalDirName); err == nil && info.IsDir() {
			// ./.tasksync/.tasksync.yaml
			viper.AddConfigPath(config.LocalDirName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err == nil {
		LogError("Using config file: "+viper.ConfigFileUsed(), nil)
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && cfgFileFlag == "":
			LogError("No config file found. Using defaults and environment variables.", nil)
		case cfgFileFlag != "" && os.IsNotExist(err):
			return fmt.Errorf("specified config file not found: %s", cfgFileFlag)
		default:
			return fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	setDefaults()

	var cfg types.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Data.Dir == "" {
		cfg.Data.Dir = config.ResolveDataDir()
	}
	// A format other than json renames the default document.
	if cfg.Data.File == config.DefaultDataFile {
		cfg.Data.File = config.DataFileForFormat(cfg.Data.Format)
	}
	if cfg.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := validateAppConfig(&cfg); err != nil {
		return err
	}
	GlobalAppConfig = cfg

	if _, err := logger.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	logger.SetBasePath(cfg.Data.Dir)
	logger.SetVersion(version)
	return nil
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
