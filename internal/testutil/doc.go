// Package testutil provides fixtures shared by package tests: item payload
// builders and a fake paginated upstream.
package testutil
