package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cellmlab/cellgen/internal/clipboard"
	"github.com/cellmlab/cellgen/internal/codegen"
	"github.com/cellmlab/cellgen/internal/log"
	"github.com/cellmlab/cellgen/internal/ode"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/net/context"
)

// Flags
var cfgFile string
var outputFlag string
var membranePotentialFlag string
var copyToClipboardFlag bool
var verboseFlag bool
var debugMode bool
var logFileFlag string

// It's a global variable to allow easy mocking in tests by direct assignment
var generate = func(model *ode.Model, membranePotential string) (string, error) {
	return codegen.New(model, membranePotential).Generate()
}

var rootCmd = &cobra.Command{
	Use:   "cellgen FILE",
	Short: "Convert a gotran ODE file into a cardiac cell model",
	Long: `cellgen reads a gotran ODE model description and generates a Python
cell model module for the xalbrain cardiac simulation framework. The output
filename derives from the input (model.ode -> model.py) unless --output is
given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		log.Logger.Info().Str("file", inputPath).Msg("Starting conversion.")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

		go func() {
			<-signalChannel
			log.Logger.Info().Msg("Interrupted. Cancelling...")
			cancel()
		}()

		model, err := ode.Load(inputPath)
		if err != nil {
			log.Logger.Error().Err(err).Str("file", inputPath).Msg("Failed to load model.")
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		membranePotential := viper.GetString("membrane_potential")
		log.Logger.Debug().
			Str("model", model.Name).
			Str("membrane_potential", membranePotential).
			Int("states", len(model.States)).
			Msg("Model loaded.")

		source, err := generate(model, membranePotential)
		if err != nil {
			log.Logger.Error().Err(err).Str("model", model.Name).Msg("Code generation failed.")
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		outPath := codegen.OutputPath(inputPath, outputFlag)
		if err := os.WriteFile(outPath, []byte(source), 0644); err != nil {
			log.Logger.Error().Err(err).Str("output", outPath).Msg("Failed to write cell model.")
			return err
		}
		log.Logger.Info().Str("output", outPath).Msg("Wrote cell model.")

		if copyToClipboardFlag {
			if err := clipboard.Copy(source); err != nil {
				log.Logger.Warn().Err(err).Msg("Error copying to clipboard")
			}
		}

		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// normalizeFlags lets the underscore spellings of the original converter
// (--membrane_potential, --log_file) keep working.
func normalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(func() {
		log.Setup(log.Options{
			Verbose: viper.GetBool("verbose"),
			Debug:   viper.GetBool("debug_mode"),
			File:    viper.GetString("log_file"),
		})
	})

	rootCmd.SetGlobalNormalizationFunc(normalizeFlags)

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output for debugging information.")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Path to the log file (default: $XDG_STATE_HOME/cellgen/cellgen.log).")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging level (overrides --verbose).")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("debug_mode", rootCmd.PersistentFlags().Lookup("debug"))

	// Store the config file in a variable if provided through a flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/cellgen/config.yaml)")
	viper.BindPFlag("config_file", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output basename; \".py\" is appended when missing (default derives from FILE)")

	rootCmd.Flags().StringVarP(&membranePotentialFlag, "membrane-potential", "m", "V", "Name of the state variable representing the membrane potential")
	// Looking for the value from the flag first, then env variables, then config file
	viper.BindPFlag("membrane_potential", rootCmd.Flags().Lookup("membrane-potential"))

	rootCmd.Flags().BoolVarP(&copyToClipboardFlag, "copy", "c", false, "Copy the generated source to the clipboard")
}

func initConfig() {
	var configPath string
	if cfgFile != "" {
		configPath = cfgFile
	} else {
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			home, err := os.UserHomeDir()
			cobra.CheckErr(err)
			xdgConfigHome = filepath.Join(home, ".config")
		}
		configPath = filepath.Join(xdgConfigHome, "cellgen", "config.yaml")
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Any variables starting with CELLGEN_* are captured for the cli
	viper.SetEnvPrefix("CELLGEN")
	viper.AutomaticEnv()

	viper.SetDefault("membrane_potential", "V")
	viper.SetDefault("verbose", false)
	viper.SetDefault("debug_mode", false)
	viper.SetDefault("log_file", "")

	if _, err := os.Stat(configPath); err != nil {
		log.Logger.Debug().Str("config_path", configPath).Msg("No config file found. Using defaults.")
		return
	}
	if err := viper.ReadInConfig(); err != nil {
		log.Logger.Warn().Err(err).Str("config_path", configPath).Msg("Error reading config file.")
		return
	}
	log.Logger.Info().Str("config_file", viper.ConfigFileUsed()).Msg("Using config file.")
}
