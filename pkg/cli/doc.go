/*
Package cli provides command-line utilities for the archivist command.

Output Formatting:

Run summaries and other command results are printed as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

The text formatter renders a *archive.RunSummary as a short report; the CSV
formatter writes one row per planned or applied move.

Progress Reporting:

Long imports report progress per written node:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(doc.Count())
	storage.Import(ctx, repo, doc, storage.WithProgress(func(n int) {
		progress.Update(int64(n))
	}))
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
