package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/procdraw/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.conf()
			if cfg.Cache.Backend == cache.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}
			cc, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer cc.Close()

			count, err := cache.Clear(cmd.Context(), cc)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Backend: %s", cfg.Cache.Backend)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached artifacts are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := cacheLocation(c.conf().CacheOptions())
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}
}

// cacheLocation describes where a backend keeps its entries: a directory,
// a Redis address or a MongoDB URI.
func cacheLocation(opts cache.Options) (string, error) {
	switch opts.Backend {
	case cache.BackendRedis:
		return "redis://" + opts.Redis.Addr, nil
	case cache.BackendMongo:
		return opts.Mongo.URI, nil
	case cache.BackendNone:
		return "none", nil
	}
	if opts.Dir != "" {
		return opts.Dir, nil
	}
	return cache.DefaultDir()
}
