package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soyeahso/boardflow/internal/config"
	"github.com/soyeahso/boardflow/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Boardflow status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Boardflow %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.TLS.Enabled)
			fmt.Printf("Store:   driver=%s path=%s\n",
				cfg.Store.Driver, paths.DatabasePath(cfg.Store))
			fmt.Printf("LLM:     model=%s key=%s\n",
				cfg.LLM.DefaultModel, maskKey(cfg.LLM.APIKey))

			if cfg.Board.Token != "" {
				fmt.Printf("Board:   token=%s\n", maskKey(cfg.Board.Token))
			} else {
				fmt.Println("Board:   (no API token, tool calls unavailable)")
			}

			fmt.Printf("Chunks:  size=%d topK=%d\n", cfg.Knowledge.ChunkSize, cfg.Knowledge.TopK)
			fmt.Printf("Feed:    retention=%d\n", cfg.Activity.Retention)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

// maskKey shows just enough of a secret to recognize it.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
