// Archivist moves aging content out of a live content tree into an archive
// location, on a cron schedule or on demand.
//
// Each run walks the children of a base folder, classifies every content
// item against a cutoff date, and moves eligible items (or whole folders when
// every item in them is eligible) below a dated archive path, clearing name
// conflicts in the archive and in any shadow locations first.
//
// Usage:
//
//	# Run the job once with the configured settings
//	archivist run --config archivist.yaml
//
//	# Preview what would move before a given date
//	archivist run --cutoff 2024-01-01 --dry-run
//
//	# Start the scheduler and HTTP trigger server
//	archivist serve --config archivist.yaml
//
//	# Load a content tree into the store
//	archivist tree import --file tree.yaml
//
//	# Check a configuration file
//	archivist config validate --config archivist.yaml
package main

func main() {
	Execute()
}
