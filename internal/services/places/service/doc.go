// Package service holds the account and place use cases.
//
// Place creation and deletion touch two documents, the place and its
// creator's place set. Both writes go through one storage transaction that
// runs detached from request cancellation under a bounded timeout.
package service
