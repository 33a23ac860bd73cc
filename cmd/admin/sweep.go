package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) runSweep(dryRun bool) error {
	report, err := cli.sweep(context.Background(), dryRun)
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Fprintf(cli.out, "scanned %d objects, %d orphaned (dry run)\n", report.Scanned, len(report.Orphans))
		for _, name := range report.Orphans {
			fmt.Fprintln(cli.out, "  "+name)
		}
		return nil
	}

	fmt.Fprintf(cli.out, "scanned %d objects, deleted %d, failed %d\n", report.Scanned, len(report.Deleted), len(report.Failed))
	for name, reason := range report.Failed {
		fmt.Fprintf(cli.out, "  %s: %s\n", name, reason)
	}
	if !report.OK() {
		return fmt.Errorf("%d objects could not be deleted", len(report.Failed))
	}
	return nil
}
