package dex

import "pokedotduel/internal/battle"

var defaultMoves = []battle.Move{
	{ID: "tackle", Name: "Tackle", Type: battle.TypeNormal, Category: battle.CategoryPhysical, Power: 40, Accuracy: 100, PP: 35},
	{ID: "scratch", Name: "Scratch", Type: battle.TypeNormal, Category: battle.CategoryPhysical, Power: 40, Accuracy: 100, PP: 35},
	{ID: "quick-attack", Name: "Quick Attack", Type: battle.TypeNormal, Category: battle.CategoryPhysical, Power: 40, Accuracy: 100, PP: 30, Priority: 1},
	{ID: "body-slam", Name: "Body Slam", Type: battle.TypeNormal, Category: battle.CategoryPhysical, Power: 85, Accuracy: 100, PP: 15},
	{ID: "slash", Name: "Slash", Type: battle.TypeNormal, Category: battle.CategoryPhysical, Power: 70, Accuracy: 100, PP: 20, CritRatio: 8},
	{ID: "ember", Name: "Ember", Type: battle.TypeFire, Category: battle.CategorySpecial, Power: 40, Accuracy: 100, PP: 25},
	{ID: "flamethrower", Name: "Flamethrower", Type: battle.TypeFire, Category: battle.CategorySpecial, Power: 90, Accuracy: 100, PP: 15},
	{ID: "water-gun", Name: "Water Gun", Type: battle.TypeWater, Category: battle.CategorySpecial, Power: 40, Accuracy: 100, PP: 25},
	{ID: "surf", Name: "Surf", Type: battle.TypeWater, Category: battle.CategorySpecial, Power: 90, Accuracy: 100, PP: 15},
	{ID: "hydro-pump", Name: "Hydro Pump", Type: battle.TypeWater, Category: battle.CategorySpecial, Power: 110, Accuracy: 80, PP: 5},
	{ID: "vine-whip", Name: "Vine Whip", Type: battle.TypeGrass, Category: battle.CategoryPhysical, Power: 45, Accuracy: 100, PP: 25},
	{ID: "razor-leaf", Name: "Razor Leaf", Type: battle.TypeGrass, Category: battle.CategoryPhysical, Power: 55, Accuracy: 95, PP: 25, CritRatio: 8},
	{ID: "thunderbolt", Name: "Thunderbolt", Type: battle.TypeElectric, Category: battle.CategorySpecial, Power: 90, Accuracy: 100, PP: 15},
	{ID: "thunder", Name: "Thunder", Type: battle.TypeElectric, Category: battle.CategorySpecial, Power: 110, Accuracy: 70, PP: 10},
	{ID: "thunder-wave", Name: "Thunder Wave", Type: battle.TypeElectric, Category: battle.CategoryStatus, Accuracy: 90, PP: 20, Inflicts: battle.StatusParalysis},
	{ID: "ice-beam", Name: "Ice Beam", Type: battle.TypeIce, Category: battle.CategorySpecial, Power: 90, Accuracy: 100, PP: 10},
	{ID: "karate-chop", Name: "Karate Chop", Type: battle.TypeFighting, Category: battle.CategoryPhysical, Power: 50, Accuracy: 100, PP: 25, CritRatio: 8},
	{ID: "submission", Name: "Submission", Type: battle.TypeFighting, Category: battle.CategoryPhysical, Power: 80, Accuracy: 80, PP: 20},
	{ID: "poison-powder", Name: "Poison Powder", Type: battle.TypePoison, Category: battle.CategoryStatus, Accuracy: 75, PP: 35, Inflicts: battle.StatusPoison},
	{ID: "earthquake", Name: "Earthquake", Type: battle.TypeGround, Category: battle.CategoryPhysical, Power: 100, Accuracy: 100, PP: 10},
	{ID: "wing-attack", Name: "Wing Attack", Type: battle.TypeFlying, Category: battle.CategoryPhysical, Power: 35, Accuracy: 100, PP: 35},
	{ID: "psychic", Name: "Psychic", Type: battle.TypePsychic, Category: battle.CategorySpecial, Power: 90, Accuracy: 100, PP: 10},
	{ID: "rock-slide", Name: "Rock Slide", Type: battle.TypeRock, Category: battle.CategoryPhysical, Power: 75, Accuracy: 90, PP: 10},
	{ID: "lick", Name: "Lick", Type: battle.TypeGhost, Category: battle.CategoryPhysical, Power: 20, Accuracy: 100, PP: 30},
	{ID: "fire-spin", Name: "Fire Spin", Type: battle.TypeFire, Category: battle.CategoryStatus, Accuracy: 70, PP: 15, Inflicts: battle.StatusBurn},
}

var defaultSpecies = []Species{
	{Key: "bulbasaur", DexNumber: 1, Name: "Bulbasaur", Types: []battle.Type{battle.TypeGrass, battle.TypePoison},
		Base: battle.Stats{HP: 45, Atk: 49, Def: 49, SpA: 65, SpD: 65, Spe: 45}, Moves: []string{"tackle", "vine-whip", "razor-leaf"}},
	{Key: "venusaur", DexNumber: 3, Name: "Venusaur", Types: []battle.Type{battle.TypeGrass, battle.TypePoison},
		Base: battle.Stats{HP: 80, Atk: 82, Def: 83, SpA: 100, SpD: 100, Spe: 80}, Moves: []string{"razor-leaf", "vine-whip", "poison-powder", "body-slam"}},
	{Key: "charmander", DexNumber: 4, Name: "Charmander", Types: []battle.Type{battle.TypeFire},
		Base: battle.Stats{HP: 39, Atk: 52, Def: 43, SpA: 60, SpD: 50, Spe: 65}, Moves: []string{"scratch", "ember", "flamethrower"}},
	{Key: "charizard", DexNumber: 6, Name: "Charizard", Types: []battle.Type{battle.TypeFire, battle.TypeFlying},
		Base: battle.Stats{HP: 78, Atk: 84, Def: 78, SpA: 109, SpD: 85, Spe: 100}, Moves: []string{"flamethrower", "slash", "wing-attack", "earthquake"}},
	{Key: "squirtle", DexNumber: 7, Name: "Squirtle", Types: []battle.Type{battle.TypeWater},
		Base: battle.Stats{HP: 44, Atk: 48, Def: 65, SpA: 50, SpD: 64, Spe: 43}, Moves: []string{"tackle", "water-gun", "hydro-pump"}},
	{Key: "blastoise", DexNumber: 9, Name: "Blastoise", Types: []battle.Type{battle.TypeWater},
		Base: battle.Stats{HP: 79, Atk: 83, Def: 100, SpA: 85, SpD: 105, Spe: 78}, Moves: []string{"surf", "hydro-pump", "ice-beam", "body-slam"}},
	{Key: "pikachu", DexNumber: 25, Name: "Pikachu", Types: []battle.Type{battle.TypeElectric},
		Base: battle.Stats{HP: 35, Atk: 55, Def: 40, SpA: 50, SpD: 50, Spe: 90}, Moves: []string{"thunderbolt", "quick-attack", "thunder", "thunder-wave"}},
	{Key: "alakazam", DexNumber: 65, Name: "Alakazam", Types: []battle.Type{battle.TypePsychic},
		Base: battle.Stats{HP: 55, Atk: 50, Def: 45, SpA: 135, SpD: 95, Spe: 120}, Moves: []string{"psychic", "thunder-wave", "body-slam"}},
	{Key: "machamp", DexNumber: 68, Name: "Machamp", Types: []battle.Type{battle.TypeFighting},
		Base: battle.Stats{HP: 90, Atk: 130, Def: 80, SpA: 65, SpD: 85, Spe: 55}, Moves: []string{"karate-chop", "submission", "earthquake", "rock-slide"}},
	{Key: "gengar", DexNumber: 94, Name: "Gengar", Types: []battle.Type{battle.TypeGhost, battle.TypePoison},
		Base: battle.Stats{HP: 60, Atk: 65, Def: 60, SpA: 130, SpD: 75, Spe: 110}, Moves: []string{"lick", "psychic", "thunderbolt", "fire-spin"}},
}
