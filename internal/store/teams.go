package store

import (
	"context"
	"strings"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/dex"
)

// TeamResolver serves catalog team ids ("dex:...") from the dex and
// everything else from the repository.
type TeamResolver struct {
	Catalog *dex.Catalog
	Repo    Repository
}

func (r TeamResolver) GetTeam(ctx context.Context, teamID string) ([]battle.Pokemon, error) {
	if strings.HasPrefix(teamID, dex.TeamIDPrefix) || r.Repo == nil {
		return r.Catalog.GetTeam(ctx, teamID)
	}
	return r.Repo.GetTeam(ctx, teamID)
}
