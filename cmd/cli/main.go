package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artfolio/marketplace-chain-sync/internal/config"
	"github.com/artfolio/marketplace-chain-sync/internal/config/di"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"github.com/artfolio/marketplace-chain-sync/internal/watcher"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	cursorRepo repository.CursorRepository
	scanner    watcher.Scanner
	auditor    watcher.Auditor
)

func main() {
	config.Init("cli")

	container := di.NewContainer()
	cursorRepo = container.Get("cursor.repo").(repository.CursorRepository)
	scanner = container.Get("scanner").(watcher.Scanner)
	auditor = container.Get("auditor").(watcher.Auditor)

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "cursor",
				Usage:  "Show the scan watermark",
				Action: showCursor,
			},
			{
				Name:   "rescan",
				Usage:  "Re-apply settlement events from a block range (idempotent, does not move the cursor)",
				Action: rescan,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "from", Required: true, Usage: "first block of the range"},
					&cli.Uint64Flag{Name: "to", Required: true, Usage: "last block of the range"},
				},
			},
			{
				Name:   "audit",
				Usage:  "Run a single ownership audit cycle",
				Action: audit,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func showCursor(c *cli.Context) error {
	cursor, err := cursorRepo.Get()
	if err != nil {
		if err == repository.ErrCursorNotFound {
			fmt.Printf("no cursor, next scan seeds from deployment block %d\n", config.Get().Ledger.DeploymentBlock)
			return nil
		}
		return err
	}

	fmt.Printf("scanned to block %d at %s\n", cursor.Height, cursor.UpdatedAt)

	return nil
}

func rescan(c *cli.Context) error {
	from := c.Uint64("from")
	to := c.Uint64("to")
	if to < from {
		return fmt.Errorf("invalid range: %d-%d", from, to)
	}

	zap.S().Infof("Rescanning blocks %d to %d", from, to)

	return scanner.ScanRange(context.Background(), from, to)
}

func audit(c *cli.Context) error {
	return auditor.Cycle(context.Background())
}
