// Package verify provides shadow bookkeeping for arena usage.
//
// An Auditor mirrors every Alloc and Free against its own live-slot set
// and fails on the violations the arena itself can only detect
// best-effort: overlapping runs, double frees, and length drift between
// allocation and free. It is built for property and fuzz tests and for
// debug wiring in arena consumers; it never sits on the allocation hot
// path of production trees.
package verify
