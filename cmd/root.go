package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/planner"
	"github.com/AnyUserName/imgsqueeze/internal/profile"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool

	// registry is shared by every job of a process so the WEBP probe runs
	// once.
	registry = format.NewRegistry(nil)
)

var rootCmd = &cobra.Command{
	Use:   "imgsqueeze",
	Short: "Shrink JPEG, PNG, WEBP and SVG images without changing their format",
	Long: `imgsqueeze re-encodes images at a chosen quality and scale.

JPEG and WEBP are re-encoded lossily, PNG is reduced to an indexed palette
and SVG markup is optimised structurally. The output format always matches
the input format.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the CLI until ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./imgsqueeze.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug level)")
	pf.String("level", "info", "log level")
	pf.StringP("profile", "p", profile.DefaultName, "compression profile")
	pf.String("profiles", "", "YAML file with additional profiles")
	pf.IntP("quality", "q", -1, "quality 0-100 (-1 = profile default)")
	pf.StringP("scale", "s", "", `scale: "50%", "w:200" or "h:120" (empty = profile default)`)

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgsqueeze %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// initConfig loads .env, the config file and IMGSQUEEZE_* variables, binds
// the running command's flags and sets up logging.
func initConfig(cmd *cobra.Command, _ []string) error {
	envErr := godotenv.Load()

	viper.SetEnvPrefix("IMGSQUEEZE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("imgsqueeze")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	setupLogging()
	if envErr != nil && !os.IsNotExist(envErr) {
		log.WithError(envErr).Warn("cannot load .env")
	}
	if f := viper.ConfigFileUsed(); f != "" {
		log.WithField("config", f).Debug("config loaded")
	}
	return nil
}

func setupLogging() {
	lvl, err := log.ParseLevel(viper.GetString("level"))
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	if log.IsLevelEnabled(log.DebugLevel) {
		log.SetFormatter(&log.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	}
	log.WithField("log_level", lvl).Debug()
}

// settings is the resolved profile plus flag and config overrides.
type settings struct {
	profile       profile.Profile
	options       compress.Options
	hashNames     bool
	noRegressSize bool
}

func resolveSettings() (settings, error) {
	set := profile.Builtin()
	if path := viper.GetString("profiles"); path != "" {
		var err error
		if set, err = profile.LoadFile(path); err != nil {
			return settings{}, err
		}
	}

	name := viper.GetString("profile")
	if _, ok := set[name]; !ok && name != "" {
		log.WithField("profile", name).Warn("unknown profile, using defaults")
	}
	prof := set.Get(name)
	opts, err := prof.Options()
	if err != nil {
		return settings{}, fmt.Errorf("profile %s: %w", prof.Name, err)
	}
	if q := viper.GetInt("quality"); viper.IsSet("quality") && q >= 0 {
		opts.Quality = q
	}
	if s := viper.GetString("scale"); viper.IsSet("scale") && s != "" {
		if opts.Scale, err = planner.ParseScale(s); err != nil {
			return settings{}, err
		}
	}

	st := settings{
		profile:       prof,
		options:       opts.Normalize(),
		hashNames:     prof.HashNames,
		noRegressSize: prof.NoRegressSize,
	}
	if viper.IsSet("hash-names") {
		st.hashNames = viper.GetBool("hash-names")
	}
	if viper.IsSet("no-regress-size") {
		st.noRegressSize = viper.GetBool("no-regress-size")
	}

	log.WithFields(log.Fields{
		"profile": prof.Name,
		"quality": st.options.Quality,
		"scale":   st.options.Scale.String(),
	}).Debug("settings")
	return st, nil
}
