/*
Package ledger implements the wallet ledger engine: double-entry style
balance tracking over wallets and append-only wallet transactions.

Every balance mutation runs in one database transaction that locks the
wallet row, inserts the ledger entry with its before/after balances and
updates the wallet balance. The row lock is the only concurrency control;
per-wallet operations are strictly serialized by it, and transfers lock
both participant rows in ascending wallet-id order so opposite-direction
transfers cannot deadlock.

Usage:

	svc := ledger.NewService(repo, cache, config.LoadLedger())

	w, err := svc.GetOrCreateWallet(ctx, ownerID, models.RoleDesigner)

	res, err := svc.Credit(ctx, ledger.MutationRequest{
	    Owner:         ledger.Owner{ID: ownerID, Role: models.RoleDesigner},
	    Amount:        decimal.RequireFromString("100.00"),
	    ReferenceType: models.ReferenceSale,
	    ReferenceID:   "s1",
	})

Error Handling:

The service returns specific errors for different scenarios:
- ErrInvalidAmount: amount is zero or negative
- ErrWalletNotFound: no wallet exists for the owner
- ErrWalletInactive: the wallet has been deactivated
- ErrSelfTransfer: source and destination wallet are the same
- InsufficientBalanceError: debit exceeds the available balance;
  carries the observed balance and the requested amount
*/
package ledger
