package config

import (
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Env is the resolved environment/CLI configuration (§6): the four flags
// and four path environment variables, bound through a single viper.Viper
// instance rather than scattered os.Getenv calls.
type Env struct {
	RoutineNameOrPath string
	SessionName       string
	Complete          bool
	Verbose           bool

	DataDirectory string
	PipeInFile    string
	PipeOutFile   string
	ProducerPath  string
}

// ParseEnv binds --routine, --session, --complete and -v/--verbose from
// args, then layers in the DATA_DIRECTORY/PIPE_IN_FILE/PIPE_OUT_FILE/
// PRODUCER_PATH environment variables via viper, applying the §6 defaults.
// args should not include the program name (i.e. pass os.Args[1:]). This
// is the single flag parser for tritond: callers must not run args through
// a second, stdlib flag.FlagSet first, since flag and pflag disagree on
// "--" handling and would otherwise reject these same flags.
func ParseEnv(args []string) (Env, error) {
	fs := flag.NewFlagSet("tritond", flag.ContinueOnError)
	routineFlag := fs.String("routine", "", "routine name or path (required)")
	sessionFlag := fs.String("session", "", "session name (required)")
	completeFlag := fs.Bool("complete", false, "mark the run as a completion pass (no-op marker)")
	verboseFlag := fs.BoolP("verbose", "v", false, "verbose mode")
	if err := fs.Parse(args); err != nil {
		return Env{}, errors.Wrap(err, "config: parsing command line")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DATA_DIRECTORY", "./data")
	v.SetDefault("PIPE_IN_FILE", "./control_in")
	v.SetDefault("PIPE_OUT_FILE", "./control_out")
	v.SetDefault("PRODUCER_PATH", "")
	if err := v.BindPFlag("routine", fs.Lookup("routine")); err != nil {
		return Env{}, errors.Wrap(err, "config: binding --routine")
	}
	if err := v.BindPFlag("session", fs.Lookup("session")); err != nil {
		return Env{}, errors.Wrap(err, "config: binding --session")
	}
	if err := v.BindPFlag("complete", fs.Lookup("complete")); err != nil {
		return Env{}, errors.Wrap(err, "config: binding --complete")
	}

	env := Env{
		RoutineNameOrPath: *routineFlag,
		SessionName:       *sessionFlag,
		Complete:          *completeFlag,
		Verbose:           *verboseFlag,
		DataDirectory:     v.GetString("DATA_DIRECTORY"),
		PipeInFile:        v.GetString("PIPE_IN_FILE"),
		PipeOutFile:       v.GetString("PIPE_OUT_FILE"),
		ProducerPath:      v.GetString("PRODUCER_PATH"),
	}

	if env.RoutineNameOrPath == "" {
		return Env{}, errors.New("config: --routine is required")
	}
	if env.SessionName == "" {
		return Env{}, errors.New("config: --session is required")
	}
	return env, nil
}
