// Package urls holds the documentation links printed by skylog commands.
//
// Usage:
//
//	import "github.com/muurk/skylog/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.Configuration)
package urls
