// Package auth signs users in with one-time email links.
//
// SendMagicLink signs a short-lived token, hands the link to a Mailer and
// caches the pending sign-in in the local state file. CompleteMagicLink
// checks the link against that cache, creates or refreshes the user
// document and stores a session token that Restore picks up on the next
// run. Both tokens are HS256 JWTs signed with a key generated on first use.
package auth
