// Package driving provides interfaces for use cases exposed to callers
// (primary/inbound ports). The CLI adapter and tests depend on these
// rather than on concrete services.
package driving
