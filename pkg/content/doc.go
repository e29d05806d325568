// Package content defines the hierarchical content tree that the archival job
// operates on, and the store interfaces the job consumes.
//
// # Content Tree
//
// The tree is addressed by slash-separated absolute paths rooted at "/":
//
//	/content/projects            folder
//	/content/projects/F1         folder
//	/content/projects/F1/N1      leaf item (has a content sub-node)
//
// A node is a leaf item when it carries a content sub-node (HasContent). Leaf
// items hold the metadata the retention policies look at: a lifecycle status,
// a creation timestamp and an optional publish timestamp.
//
// # Sessions
//
// All reads and writes go through a Session obtained from a Repository. A
// session queues mutations and makes them durable with a single Commit. Closing
// a session without committing discards whatever the backend has not already
// made visible:
//
//	session, err := repo.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	if err := session.Move(ctx, "/a/F1", "/b/F1"); err != nil {
//	    return err
//	}
//	return session.Commit(ctx)
//
// Concrete backends live in the storage subpackage.
package content
