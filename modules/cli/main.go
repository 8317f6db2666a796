package cli

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/klarberg/adnest/modules/ui"
	"github.com/klarberg/adnest/modules/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	Root = &cobra.Command{
		Use:              "adnest",
		Short:            version.VersionStringShort(),
		SilenceErrors:    true,
		SilenceUsage:     true,
		TraverseChildren: true,
	}
	prerunhooks []func(cmd *cobra.Command, args []string) error

	loglevel = Root.Flags().String("loglevel", "info", "Console log level")

	logfile      = Root.Flags().String("logfile", "", "File to log to")
	logfilelevel = Root.Flags().String("logfilelevel", "info", "Log file log level")
	logzerotime  = Root.Flags().Bool("logzerotime", false, "Logged timestamps start from zero when program launches")

	embeddedprofiler = Root.Flags().Bool("embeddedprofiler", false, "Start embedded Go profiler on localhost:6060")
	cpuprofile       = Root.Flags().Bool("cpuprofile", false, "Save CPU profile from start to end of processing in datapath")

	// also available for subcommands
	Datapath = Root.Flags().String("datapath", "data", "folder to store and read data")

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show adnest version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.Info().Msg(version.ProgramVersionShort())
			return nil
		},
	}

	cpuprofilefile *os.File
)

func bindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && viper.IsSet(f.Name) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(viper.GetStringSlice(f.Name))
			} else {
				f.Value.Set(viper.GetString(f.Name))
			}
		}
	})
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && viper.IsSet(f.Name) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(viper.GetStringSlice(f.Name))
			} else {
				f.Value.Set(viper.GetString(f.Name))
			}
		}
	})
	for _, subCommand := range cmd.Commands() {
		bindFlags(subCommand)
	}
}

func loadConfiguration(cmd *cobra.Command) {
	viper.SetEnvPrefix("ADNEST_")
	viper.AutomaticEnv()

	configfilename := filepath.Join(*Datapath, "configuration.yaml")
	viper.SetConfigFile(configfilename)
	if err := viper.ReadInConfig(); err == nil {
		ui.Info().Msgf("Using configuration file: %v", viper.ConfigFileUsed())
	} else {
		ui.Debug().Msgf("No settings loaded from %v: %v", configfilename, err.Error())
	}

	bindFlags(cmd)
}

func init() {
	cobra.OnInitialize(func() {
		loadConfiguration(Root)
	})

	Root.AddCommand(versionCmd)
	Root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ui.Zerotime = *logzerotime

		ll, err := ui.LogLevelString(*loglevel)
		if err != nil {
			ui.Error().Msgf("Invalid log level: %v - use one of: %v", *loglevel, ui.LogLevelStrings())
		} else {
			ui.SetLoglevel(ll)
		}

		if *logfile != "" {
			timestamp := time.Now().Format(time.DateOnly)
			*logfile = strings.Replace(*logfile, "{timestamp}", timestamp, 1)

			ll, err = ui.LogLevelString(*logfilelevel)
			if err != nil {
				ui.Error().Msgf("Invalid log file log level: %v - use one of: %v", *logfilelevel, ui.LogLevelStrings())
			} else {
				ui.SetLogFile(*logfile, ll)
			}
		} else {
			ui.SetLogFile("", ui.LevelInfo) // Tell logger to stop buffering early output
		}

		ui.Info().Msg(version.VersionString())

		if *embeddedprofiler {
			go func() {
				port := 6060
				for {
					err := http.ListenAndServe(fmt.Sprintf("localhost:%v", port), nil)
					if err != nil {
						ui.Error().Msgf("Profiling listener failed: %v, trying with new port", err)
						port++
					} else {
						break
					}
				}
			}()
		}

		if *cpuprofile {
			pproffile := filepath.Join(*Datapath, "adnest-cpuprofile-"+time.Now().Format("06010215040506")+".pprof")
			cpuprofilefile, err = os.Create(pproffile)
			if err != nil {
				return fmt.Errorf("could not set up CPU profiling in file %v: %v", pproffile, err)
			}
			pprof.StartCPUProfile(cpuprofilefile)
		}

		// Ensure the data folder is available
		if _, err := os.Stat(*Datapath); os.IsNotExist(err) {
			err = os.MkdirAll(*Datapath, 0711)
			if err != nil {
				return fmt.Errorf("could not create data folder %v: %v", *Datapath, err)
			}
		}
		for _, prerunhook := range prerunhooks {
			err := prerunhook(cmd, args)
			if err != nil {
				return fmt.Errorf("prerun hook failed: %v", err)
			}
		}

		return nil
	}
	Root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if *cpuprofile && cpuprofilefile != nil {
			pprof.StopCPUProfile()
			cpuprofilefile.Close()
		}
		return nil
	}
}

func AddPreRunHook(f func(cmd *cobra.Command, args []string) error) {
	prerunhooks = append(prerunhooks, f)
}

func Run() error {
	err := Root.Execute()

	if err == nil {
		ui.Info().Msgf("Terminating successfully")
	} else {
		ui.Error().Msgf("%v", err)
	}

	return err
}
