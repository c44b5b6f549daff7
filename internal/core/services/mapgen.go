/*
 * file: mapgen.go
 * package: services
 * description:
 *     Pure-function random map generator: places the enemy planet in the
 *     inner area, then rejection-samples up to NumberOfPlanets planets
 *     outside the outer-bounds margin and apart from each other and the
 *     enemy planet. No I/O; a fresh GameMap is returned on every call.
 */
package services

import (
	"log"
	"math/rand"

	"github.com/orbitforge/roomserver/internal/core/domain"
)

const (
	tileSize               = 256
	tileCount               = 100
	mapSize                 = tileSize * tileCount // 25 600
	outerBoundsTiles        = 10
	outerBounds             = outerBoundsTiles * tileSize // 2 560
	planetRadius            = 125
	distanceBetweenPlanets  = 1000
	numberOfPlanets         = 25
	playerCap               = 10
	placementGiveUpAttempts = 20

	innerAreaLowTile  = 35
	innerAreaHighTile = 65
)

var planetTypes = []domain.PlanetType{
	domain.PlanetRed, domain.PlanetYellow, domain.PlanetGas, domain.PlanetWhite,
}

// GenerateMap builds a fresh, random GameMap per the constants above.
func GenerateMap() *domain.GameMap {
	rng := rand.New(rand.NewSource(rand.Int63()))

	enemy := domain.Planet{
		Position:   randomInnerPoint(rng),
		Radius:     planetRadius,
		PlanetType: domain.PlanetEarth,
	}

	planets := placeRandomPlanets(rng, enemy)

	return &domain.GameMap{
		Size:        domain.Coordinates{X: mapSize, Y: mapSize},
		Planets:     planets,
		PlayerCap:   playerCap,
		Spawns:      defaultSpawns(),
		EnemyPlanet: enemy,
	}
}

// randomInnerPoint samples a point in [35*tileSize, 65*tileSize] on both axes.
func randomInnerPoint(rng *rand.Rand) domain.Coordinates {
	low := int64(innerAreaLowTile * tileSize)
	high := int64(innerAreaHighTile * tileSize)
	return domain.Coordinates{
		X: low + rng.Int63n(high-low),
		Y: low + rng.Int63n(high-low),
	}
}

func placeRandomPlanets(rng *rand.Rand, enemy domain.Planet) []domain.Planet {
	planets := make([]domain.Planet, 0, numberOfPlanets)

	for i := 0; i < numberOfPlanets; i++ {
		x, y, placed := placeOnePlanet(rng, planets, enemy)
		if !placed {
			log.Printf("WARN: gave up placing planet %d after %d attempts", i, placementGiveUpAttempts)
			continue
		}
		planets = append(planets, domain.Planet{
			Position:   domain.Coordinates{X: x, Y: y},
			Radius:     planetRadius,
			PlanetType: planetTypes[rng.Intn(len(planetTypes))],
		})
	}

	return planets
}

// placeOnePlanet samples candidate positions until one fits or the attempt
// budget is exhausted.
func placeOnePlanet(rng *rand.Rand, accepted []domain.Planet, enemy domain.Planet) (x, y int64, ok bool) {
	low := int64(outerBounds)
	high := int64(mapSize - outerBounds)

	for attempt := 0; attempt <= placementGiveUpAttempts; attempt++ {
		cx := low + rng.Int63n(high-low)
		cy := low + rng.Int63n(high-low)
		if fitsWithAll(cx, cy, accepted, enemy) {
			return cx, cy, true
		}
	}
	return 0, 0, false
}

func fitsWithAll(x, y int64, accepted []domain.Planet, enemy domain.Planet) bool {
	if !squaredDistanceAtLeast(x, y, enemy.Position.X, enemy.Position.Y, distanceBetweenPlanets) {
		return false
	}
	for _, p := range accepted {
		if !squaredDistanceAtLeast(x, y, p.Position.X, p.Position.Y, distanceBetweenPlanets) {
			return false
		}
	}
	return true
}

// squaredDistanceAtLeast compares squared distance against a squared
// threshold using signed 64-bit arithmetic, avoiding overflow and any need
// for a floating-point square root.
func squaredDistanceAtLeast(x1, y1, x2, y2 int64, threshold int64) bool {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx+dy*dy >= threshold*threshold
}

func defaultSpawns() []domain.Coordinates {
	spawns := make([]domain.Coordinates, 0, playerCap)
	base := int64(outerBoundsTiles+5) * tileSize
	step := int64(3 * tileSize)
	for i := 0; i < playerCap; i++ {
		row := int64(i / 4)
		col := int64(i % 4)
		spawns = append(spawns, domain.Coordinates{
			X: base + col*step,
			Y: base + row*step,
		})
	}
	return spawns
}
