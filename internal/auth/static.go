// Package auth provides the capability check consumed by privileged
// operations. Grant administration is external to this service; the static
// authorizer projects configured grants into the domain.Authorizer interface.
package auth

import (
	"github.com/rs/zerolog"
)

// StaticAuthorizer answers capability checks from a fixed grant table built
// at startup. It satisfies domain.Authorizer.
type StaticAuthorizer struct {
	grants map[string]map[string]bool // capability -> principal -> granted
	log    zerolog.Logger
}

// NewStaticAuthorizer creates an authorizer granting the capability to the
// given principals.
func NewStaticAuthorizer(capability string, principals []string, log zerolog.Logger) *StaticAuthorizer {
	holders := make(map[string]bool, len(principals))
	for _, p := range principals {
		holders[p] = true
	}

	return &StaticAuthorizer{
		grants: map[string]map[string]bool{capability: holders},
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// HasCapability reports whether the principal holds the capability.
func (a *StaticAuthorizer) HasCapability(principal, capability string) bool {
	granted := a.grants[capability][principal]
	if !granted {
		a.log.Warn().
			Str("principal", principal).
			Str("capability", capability).
			Msg("Capability check failed")
	}
	return granted
}
