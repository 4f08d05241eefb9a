package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/suite"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List the bundled test cases",
	Action: func(c *cli.Context) error {
		w := c.App.Writer
		all := suite.All()
		for _, group := range suite.Groups() {
			fmt.Fprintln(w, group)
			for _, tc := range suite.Filter(all, []string{group}) {
				fmt.Fprintf(w, "  %-36s %s\n", tc.Name, tc.Description)
			}
		}
		fmt.Fprintf(w, "\n%d test case(s)\n", len(all))
		return nil
	},
}

var logsCommand = &cli.Command{
	Name:  "logs",
	Usage: "Show or clean run log files",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Log directory (default: log.dir from config, else ./logs)",
		},
		&cli.IntFlag{
			Name:  "keep",
			Usage: "Number of newest log files to keep with --clean",
			Value: config.DefaultLogKeep,
		},
		&cli.BoolFlag{
			Name:  "clean",
			Usage: "Delete all but the newest --keep log files",
		},
	},
	Action: showLogs,
}

func logDir(c *cli.Context) string {
	if dir := c.String("dir"); dir != "" {
		return dir
	}
	if cfg, err := loadConfig(c.String("config")); err == nil {
		return cfg.LogDir()
	}
	return config.DefaultLogDir
}

func showLogs(c *cli.Context) error {
	w := c.App.Writer
	dir := logDir(c)

	if c.Bool("clean") {
		n, err := logger.Rotate(dir, c.Int("keep"))
		if err != nil {
			return fmt.Errorf("clean logs: %w", err)
		}
		fmt.Fprintf(w, "Removed %d log file(s) from %s\n", n, dir)
	}

	summary, err := logger.Summarize(dir)
	if err != nil {
		return fmt.Errorf("read logs: %w", err)
	}
	fmt.Fprintf(w, "Log directory: %s\n", summary.Dir)
	fmt.Fprintf(w, "Total files: %d (%s)\n", len(summary.Files), logger.FormatSize(summary.TotalSize))
	for _, f := range summary.Files {
		fmt.Fprintf(w, "  %-45s %10s  %s\n", f.Name, logger.FormatSize(f.Size), f.ModTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}
