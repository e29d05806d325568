// Package archive implements the content retention job.
//
// A run walks a content tree depth-first from a base path. Leaf items
// directly under a walked folder are evaluated one by one. For every folder,
// the immediate leaf children are classified by a policy.Policy and the folder
// is then either moved whole, partially (only its eligible children are
// moved into a destination folder of the same name), or left alone. The walk
// then descends into the folder's subfolders with the destination prefix
// extended by the folder name, so the archive mirrors the source layout.
//
// Before each move, the Resolver deletes any item with the same name at the
// shadow locations and at the primary target. All mutations happen in a
// single content.Session that is committed once at the end of the run.
//
// # Usage
//
//	ctrl := archive.NewController(repo, archive.Config{})
//	summary := ctrl.Run(ctx, archive.Request{
//	    BasePath:    "/content/site/en",
//	    TargetPath:  "/content/projects",
//	    ShadowPaths: []string{"/content/dam/projects"},
//	    Cutoff:      archive.MonthsBefore(6),
//	    Mode:        policy.ModeStatusAndCreationDate,
//	})
//	if summary.State == archive.StateFailed {
//	    // inspect summary.Errors
//	}
package archive
