package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMap_PlanetsRespectMinimumSpacing(t *testing.T) {
	m := GenerateMap()
	require.NotNil(t, m)

	for i, p := range m.Planets {
		for j, q := range m.Planets {
			if i == j {
				continue
			}
			assert.True(t, squaredDistanceAtLeast(p.Position.X, p.Position.Y, q.Position.X, q.Position.Y, distanceBetweenPlanets),
				"planets %d and %d are closer than the minimum spacing", i, j)
		}
		assert.True(t, squaredDistanceAtLeast(p.Position.X, p.Position.Y, m.EnemyPlanet.Position.X, m.EnemyPlanet.Position.Y, distanceBetweenPlanets),
			"planet %d is closer than the minimum spacing to the enemy planet", i)
	}
}

func TestGenerateMap_EnemyPlanetInInnerArea(t *testing.T) {
	m := GenerateMap()
	low := int64(innerAreaLowTile * tileSize)
	high := int64(innerAreaHighTile * tileSize)

	assert.GreaterOrEqual(t, m.EnemyPlanet.Position.X, low)
	assert.LessOrEqual(t, m.EnemyPlanet.Position.X, high)
	assert.GreaterOrEqual(t, m.EnemyPlanet.Position.Y, low)
	assert.LessOrEqual(t, m.EnemyPlanet.Position.Y, high)
}

func TestGenerateMap_SpawnsAtLeastPlayerCap(t *testing.T) {
	m := GenerateMap()
	assert.GreaterOrEqual(t, len(m.Spawns), m.PlayerCap)
}

func TestSpawnFor_FallsBackPastSpawnList(t *testing.T) {
	m := GenerateMap()
	spawn := m.SpawnFor(len(m.Spawns) + 5)
	assert.Equal(t, int64(1280), spawn.X)
	assert.Equal(t, int64(1280), spawn.Y)
}

func TestSquaredDistanceAtLeast(t *testing.T) {
	assert.True(t, squaredDistanceAtLeast(0, 0, 1000, 0, 1000))
	assert.False(t, squaredDistanceAtLeast(0, 0, 999, 0, 1000))
	assert.True(t, squaredDistanceAtLeast(0, 0, 0, 0, 0))
}
