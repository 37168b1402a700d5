package main

// Blank imports ensure policy init() registration runs for the CLI binary.
import (
	_ "github.com/mpelletier/agentshift/internal/policies/bonus"
	_ "github.com/mpelletier/agentshift/internal/policies/exhaustive"
	_ "github.com/mpelletier/agentshift/internal/policies/patience"
)
