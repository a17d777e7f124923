// Package main hosts the labelclean CLI entrypoint and command graph.
//
// The Cobra-based command tree runs batch processing, reports run status from
// the checkpoint and the run ledger, validates reference taxonomies, and
// scaffolds configuration. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
