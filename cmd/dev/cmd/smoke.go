package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func SmokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the motion cli against the simulated bus",
		Long: `Run every read path of the motion cli on the in-memory bus.

Each supported sensor model is attached at its default address, read and dumped.
A non-zero exit of any step fails the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := cmd.Flags().GetInt("count")
			if err != nil {
				return fmt.Errorf("could not get count flag: %w", err)
			}
			steps := [][]string{
				{"read", "--sensor", "adxl345", "--count", fmt.Sprint(count), "--interval", "100ms"},
				{"read", "--sensor", "mpu6050", "--count", fmt.Sprint(count), "--interval", "100ms"},
				{"dump", "--sensor", "adxl345"},
				{"dump", "--sensor", "mpu6050"},
			}
			for _, step := range steps {
				runArgs := append([]string{"run", "./cmd/motion", "--adapter", "sim"}, step...)
				slog.Info("running", "args", step)
				run := exec.CommandContext(cmd.Context(), "go", runArgs...)
				run.Stdout = os.Stdout
				run.Stderr = os.Stderr
				if err := run.Run(); err != nil {
					return fmt.Errorf("smoke step %v failed: %w", step, err)
				}
			}
			slog.Info("smoke run completed")
			return nil
		},
	}
	cmd.Flags().Int("count", 3, "snapshots per sensor")
	return cmd
}
