package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/onto-forge/entities-service/internal/auth"
	"github.com/onto-forge/entities-service/internal/config"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// Server bundles everything the HTTP handlers need.
type Server struct {
	// Config is the service configuration.
	Config *config.Config

	// Store is the entity backend.
	Store store.Store

	// Verifier checks bearer credentials on write endpoints.
	Verifier auth.Verifier

	// Rules holds the identity syntax (base namespace, supported
	// alternates, name pattern).
	Rules entity.Rules

	// Logger is the logger for the server.
	Logger hclog.Logger
}
