// Package gotrue implements the Provider interface against a hosted
// GoTrue-compatible identity endpoint (Supabase Auth and friends).
package gotrue
