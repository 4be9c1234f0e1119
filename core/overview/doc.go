// Package overview tallies the model calls made during one run.
//
// An [Overview] counts calls and failures and sums token usage. Install
// [Overview.Middleware] in a client's send chain to record every call, or
// carry the overview in a context with [Overview.ToContext] and record
// through [Middleware]. Pricing the total is left to the cost package.
package overview
