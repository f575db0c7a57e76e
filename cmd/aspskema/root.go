package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/aspskema/i18n"
)

type app struct {
	verbose bool
	lang    string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	cmd := &cobra.Command{
		Use:   "aspskema",
		Short: "Schema validation for logic-program facts",
		Long: `aspskema compiles a YAML or JSON schema into validators that check
every fact of a logic program while it is grounded.

Examples:
  aspskema validate schema.yaml facts.lp
  aspskema validate --engine mangle schema.yaml facts.mg
  aspskema validate --print schema.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			i18n.SetLanguage(a.lang)
			if !a.verbose {
				return nil
			}
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			l, err := cfg.Build()
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log validation phases to stderr")
	cmd.PersistentFlags().StringVar(&a.lang, "lang", "en", "Language of issue summaries (en|ja)")
	cmd.AddCommand(newValidateCmd(a))
	return cmd
}
