// Package txn provides a rollback-only transaction for remote provisioning.
//
// A Transaction is an ordered ledger of undo actions. Every component that
// creates a remote resource registers exactly one undo action immediately
// after the creation succeeds. Rollback replays the ledger in reverse order,
// so resources are removed in the opposite order they were created: children
// before their parents, rules before their chains, ports before their
// routers.
//
// There is no commit. A successful run simply never calls Rollback. There
// is no isolation from concurrent changes on the controller and no recovery
// if the process dies mid-run; the ledger lives in memory only.
//
// Usage:
//
//	tx := txn.New(logger)
//	if err := build(ctx, api, tx); err != nil {
//		if rbErr := tx.Rollback(ctx); rbErr != nil {
//			logger.Error("Rollback incomplete", zap.Error(rbErr))
//		}
//	}
package txn
