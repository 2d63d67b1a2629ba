package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/services"
	"github.com/pandeptwidyaop/sndctl/internal/sococli"
)

var runCmd = &cobra.Command{
	Use:   "run <name> [args...]",
	Short: "Execute a macro",
	Long: `Executes a macro step by step. Arguments replace %1, %2, ... in the
macro body. Every step runs even if an earlier one fails; the exit status
is non-zero when any step failed.

Examples:
  sndctl run morning
  sndctl run set_volume "Living Room" 25`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMacro,
}

var speakersCmd = &cobra.Command{
	Use:   "speakers",
	Short: "List speakers known to the soco-cli server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := sococli.New(cfg.SocoCLI.URL, cfg.SocoCLI.GetTimeout())
		speakers, err := client.Speakers(cmd.Context())
		if err != nil {
			printError("list speakers", err)
			return err
		}
		for _, s := range speakers {
			fmt.Println(s)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, speakersCmd)
}

func runMacro(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, release, err := openMacros(cfg)
	if err != nil {
		printError("open macros", err)
		return err
	}
	defer release()

	client := sococli.New(cfg.SocoCLI.URL, cfg.SocoCLI.GetTimeout())
	executor := services.NewExecutorService(svc, client, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := executor.Execute(ctx, args[0], args[1:])
	if err != nil {
		return notFound(svc, args[0], err)
	}

	printResult(result)

	if !result.Success {
		return fmt.Errorf("macro %s finished with status %s", result.MacroName, result.Status)
	}
	return nil
}

func printResult(result *models.ExecutionResult) {
	for _, step := range result.Steps {
		mark := "ok"
		if step.Failed() {
			mark = fmt.Sprintf("exit %d", step.ExitCode)
		}
		line := strings.TrimSpace(strings.Join(append([]string{step.Command.Device, step.Command.Action}, step.Command.Args...), " "))
		fmt.Printf("[%d] %s (%s)\n", step.Index+1, line, mark)
		if out := strings.TrimSpace(step.Stdout); out != "" {
			fmt.Printf("    %s\n", strings.ReplaceAll(out, "\n", "\n    "))
		}
		if errOut := strings.TrimSpace(step.Stderr); errOut != "" {
			fmt.Fprintf(os.Stderr, "    %s\n", strings.ReplaceAll(errOut, "\n", "\n    "))
		}
	}
	fmt.Printf("%s: %d/%d steps, status %s\n", result.MacroName, len(result.Steps), result.TotalSteps, result.Status)
}
